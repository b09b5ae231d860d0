package snapdredge

import (
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/schollz/progressbar/v3"
)

// Result tags an Outcome with what the AMI-association lookup found.
type Result int

const (
	// ResultAttached means at least one AMI's block device mapping
	// references the snapshot.
	ResultAttached Result = iota

	// ResultUnattached means no AMI references the snapshot.
	ResultUnattached

	// ResultLookupFailed means the lookup itself errored. The snapshot
	// is excluded from both exported tables.
	ResultLookupFailed
)

// An Outcome records what was learned about one snapshot. Exactly one
// Outcome is produced per fetched snapshot and it is not modified after
// the lookup completes.
type Outcome struct {
	// SnapshotID identifies the snapshot the lookup ran against.
	SnapshotID string

	// Result tags which of the three cases the lookup hit.
	Result Result

	// ImageIDs holds the referencing AMI ids in the order the lookup
	// returned them. Only populated when Result is ResultAttached.
	ImageIDs []string

	// Cause holds the lookup error when Result is ResultLookupFailed.
	Cause error
}

// classify issues one filtered image describe for the given snapshot
// and maps the response to an Outcome. Lookup errors are captured in
// the Outcome rather than returned so that one bad snapshot cannot
// take down the rest of the survey.
func (s *Survey) classify(snapshotID string) Outcome {
	input := ec2.DescribeImagesInput{
		Filters: []*ec2.Filter{
			{
				Name:   aws.String("block-device-mapping.snapshot-id"),
				Values: []*string{aws.String(snapshotID)},
			},
		},
	}
	results, err := s.ec2svc.DescribeImages(&input)
	if err != nil {
		return Outcome{SnapshotID: snapshotID, Result: ResultLookupFailed, Cause: err}
	}
	var imageIDs []string
	for _, image := range results.Images {
		if image.ImageId != nil {
			imageIDs = append(imageIDs, *image.ImageId)
		}
	}
	if len(imageIDs) == 0 {
		return Outcome{SnapshotID: snapshotID, Result: ResultUnattached}
	}
	return Outcome{SnapshotID: snapshotID, Result: ResultAttached, ImageIDs: imageIDs}
}

// classifyAll runs classify over every snapshot id using a fixed pool
// of workers. Outcomes are collected in completion order; no ordering
// guarantee is made relative to submission. The results channel is
// drained only on the calling goroutine so the accumulator needs no
// lock. Once submitted every unit runs to completion or individual
// failure; there is no cancellation.
func (s *Survey) classifyAll(snapshotIDs []string) (outcomes []Outcome) {
	total := len(snapshotIDs)
	s.log.Info("checking snapshot associations in parallel", "snapshots", total, "workers", s.workers)

	jobs := make(chan string)
	results := make(chan Outcome)
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				results <- s.classify(id)
			}
		}()
	}
	go func() {
		for _, id := range snapshotIDs {
			jobs <- id
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var bar *progressbar.ProgressBar
	if s.showProgress {
		bar = progressbar.Default(int64(total), "processing snapshots")
	}
	completed := 0
	for outcome := range results {
		completed++
		if bar != nil {
			bar.Add(1)
		}
		if outcome.Result == ResultLookupFailed {
			s.log.Warn("error processing snapshot",
				"snapshot", outcome.SnapshotID,
				"error", outcome.Cause.Error(),
			)
		}
		outcomes = append(outcomes, outcome)
	}
	s.log.Info("association checks complete", "completed", completed, "total", total)
	return outcomes
}
