//go:build ignore

// Demonstrates ordering concurrent file appends with a claim queue: every
// producer learns its record's offset at push time, and whichever producer
// holds the claim writes the backlog to disk, so the file ends up with every
// record at the offset its pusher was promised, without a mutex around the
// file.
package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/crystalcld/atomic-try-update/claim"
)

const (
	producers = 16
	records   = 200
)

type record struct {
	data []byte
}

func main() {
	f, err := os.CreateTemp("", "writelog-*.log")
	if err != nil {
		log.Fatal(err)
	}
	defer os.Remove(f.Name())

	queue := claim.NewQueue[record]()

	var g errgroup.Group
	for p := 0; p < producers; p++ {
		p := p
		g.Go(func() error {
			for i := 0; i < records; i++ {
				data := []byte(fmt.Sprintf("producer=%02d seq=%03d\n", p, i))

				offset, claimed := queue.Push(record{data: data}, uint64(len(data)))
				_ = offset // the caller's record will land exactly here

				if !claimed {
					continue
				}
				// We hold the claim: drain until the queue empties.
				for {
					batch, stillClaimed := queue.Drain()
					if !stillClaimed {
						break
					}
					for {
						r, ok := batch.Next()
						if !ok {
							break
						}
						if _, err := f.Write(r.data); err != nil {
							return err
						}
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}

	info, err := f.Stat()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %d bytes, queue offset %d\n", info.Size(), queue.Offset())
}
