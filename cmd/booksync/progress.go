package main

import (
	"fmt"
	"io"

	"github.com/cheggaaa/pb/v3"

	"github.com/peteski22/booksync/internal/mirror"
	"github.com/peteski22/booksync/internal/sync"
)

const progressTemplate pb.ProgressBarTemplate = `{{string . "kind"}} {{counters . }} {{bar . }} {{percent . }}`

// progressReporter draws one progress bar per entity kind.
type progressReporter struct {
	bar *pb.ProgressBar
	out io.Writer
}

func newProgressReporter(out io.Writer) *progressReporter {
	return &progressReporter{out: out}
}

// KindStarted implements sync.Progress.
func (p *progressReporter) KindStarted(kind mirror.Kind, total int) {
	bar := progressTemplate.New(total)
	bar.SetWriter(p.out)
	bar.Set("kind", string(kind))
	bar.Start()
	p.bar = bar
}

// RecordProcessed implements sync.Progress.
func (p *progressReporter) RecordProcessed(mirror.Kind) {
	if p.bar != nil {
		p.bar.Increment()
	}
}

// KindFinished implements sync.Progress.
func (p *progressReporter) KindFinished(res sync.EntityResult) {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
	fmt.Fprintf(p.out, "%s: %d fetched, %d created, %d updated, %d failed\n",
		res.Kind, res.Fetched, res.Created, res.Updated, res.Failed)
}
