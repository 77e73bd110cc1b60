package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/sieve/internal/model"
)

// Identifier runs the elimination protocol for one observation set
type Identifier interface {
	Identify(ctx context.Context, observations []model.Observation) (model.Identification, error)
}

// Case is one observation set read from a batch file
type Case struct {
	Line         int
	Raw          string
	Observations []model.Observation
	ParseError   error
}

// IdentifyJob represents one identification
type IdentifyJob struct {
	Case       Case
	Identifier Identifier
	index      int
}

// Execute executes the identification job
func (j *IdentifyJob) Execute(ctx context.Context) Result {
	res := &IdentifyResult{Line: j.Case.Line, Input: j.Case.Raw, index: j.index}
	if j.Case.ParseError != nil {
		res.Error = j.Case.ParseError
		return res
	}

	id, err := j.Identifier.Identify(ctx, j.Case.Observations)
	if err != nil {
		res.Error = err
		return res
	}
	res.Identification = &id
	return res
}

// IdentifyResult represents the result of an identification job
type IdentifyResult struct {
	Line           int
	Input          string
	Identification *model.Identification
	Error          error
	index          int
}

// GetError returns the error from the identification
func (r *IdentifyResult) GetError() error {
	return r.Error
}

// BatchProcessor identifies many observation sets concurrently
type BatchProcessor struct {
	identifier  Identifier
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(identifier Identifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		identifier:  identifier,
		concurrency: concurrency,
	}
}

// ProcessCases identifies every case and returns one result per case in
// input order. A failing case is reported in its result and never aborts the
// batch; cases the context cut off carry the context error.
func (b *BatchProcessor) ProcessCases(ctx context.Context, cases []Case) []*IdentifyResult {
	if len(cases) == 0 {
		return []*IdentifyResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, c := range cases {
		pool.Submit(&IdentifyJob{Case: c, Identifier: b.identifier, index: i})
	}

	out := make([]*IdentifyResult, len(cases))
	for _, result := range pool.Wait() {
		r := result.(*IdentifyResult)
		out[r.index] = r
	}

	for i, c := range cases {
		if out[i] != nil {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out[i] = &IdentifyResult{Line: c.Line, Input: c.Raw, Error: fmt.Errorf("not identified: %w", err), index: i}
	}
	return out
}

// ProcessFile reads observation sets from a file and identifies them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*IdentifyResult, error) {
	cases, err := ReadCasesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}

	return b.ProcessCases(ctx, cases), nil
}

// ReadCasesFromFile reads one observation set per line, e.g.
// "caliber=9x19; magazine_capacity=17". Blank lines and # comments are skipped.
// A malformed line becomes a case carrying its parse error.
func ReadCasesFromFile(filePath string) ([]Case, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var cases []Case

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		observations, err := model.ParseObservationList(line)
		cases = append(cases, Case{
			Line:         lineNo,
			Raw:          line,
			Observations: observations,
			ParseError:   err,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return cases, nil
}
