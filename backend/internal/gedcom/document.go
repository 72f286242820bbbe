package gedcom

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"gedgraph/backend/internal/crowd"
	"gedgraph/backend/internal/person"
	"gedgraph/backend/pkg/logger"
)

// Trailer closes every document.
var Trailer = Line{Level: 0, Tag: "TRLR"}

// Options controls document output.
type Options struct {
	SynthesizeChildless bool
	Source              string
	Version             string
	Note                string
	Date                time.Time
}

// Write renders the whole crowd: header, individuals by id, families by key
// and the trailer.
func Write(w io.Writer, c *crowd.Crowd, opts Options) error {
	// Grouping sets each person's family key, so it runs first.
	families := c.FamilyList(opts.SynthesizeChildless)

	bw := bufio.NewWriter(w)
	emit := func(lines []Line) error {
		for _, l := range lines {
			if _, err := fmt.Fprintln(bw, l.String()); err != nil {
				return err
			}
		}
		return nil
	}

	header, err := Render(headerValues(opts), "HEAD", HeaderTemplate)
	if err != nil {
		return err
	}
	if err := emit(header); err != nil {
		return err
	}

	var renderErr error
	c.Each(func(p *person.Person) {
		if renderErr != nil {
			return
		}
		lines, err := RenderIndividual(c, p)
		if err != nil {
			renderErr = fmt.Errorf("individual %s: %w", p.ID, err)
			return
		}
		renderErr = emit(lines)
	})
	if renderErr != nil {
		return renderErr
	}

	for _, f := range families {
		lines, err := RenderFamily(c, f)
		if err != nil {
			return fmt.Errorf("family %s: %w", f.Key, err)
		}
		if err := emit(lines); err != nil {
			return err
		}
	}

	if err := emit([]Line{Trailer}); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	logger.Get().Info("GEDCOM written",
		zap.Int("individuals", c.Len()),
		zap.Int("families", len(families)),
	)
	return nil
}

func headerValues(opts Options) Values {
	v := Values{
		"source":  opts.Source,
		"version": opts.Version,
		"note":    opts.Note,
	}
	if v["source"] == "" {
		v["source"] = "gedgraph"
	}
	if !opts.Date.IsZero() {
		v["date"] = strings.ToUpper(opts.Date.Format("2 Jan 2006"))
	}
	return v
}
