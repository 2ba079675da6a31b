package healing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"odyssey/internal/classify"
)

// State is the per-file healing state machine:
//
//	Unverified -> Failing(attempt=0) -> {Fixing -> Reverifying} ->
//	{Passed | Failing(attempt+1) | Exhausted | Unhealable}
type State string

const (
	StateUnverified  State = "unverified"
	StateFailing     State = "failing"
	StateFixing      State = "fixing"
	StateReverifying State = "reverifying"
	StatePassed      State = "passed"
	StateExhausted   State = "exhausted"
	StateUnhealable  State = "unhealable"
)

// VerifyStatus is the outcome of one verification run.
type VerifyStatus string

const (
	VerifyPassed VerifyStatus = "passed"
	VerifyFailed VerifyStatus = "failed"
)

// VerifyResult is the shape any test runner must produce for the loop.
type VerifyResult struct {
	Status VerifyStatus
	Errors []string
}

// VerifyFunc runs the test under repair. It is injected: the loop never
// spawns processes itself, and verification is its only blocking operation.
type VerifyFunc func(ctx context.Context) (VerifyResult, error)

// SourceStore reads and writes the candidate test file. A fix, once
// written, is either the final state or superseded by the next fix; the
// loop never rolls one back.
type SourceStore interface {
	Read() (string, error)
	Write(source string) error
}

// AttemptRecord is one entry of the healing attempt log.
type AttemptRecord struct {
	Attempt     int       `json:"attempt"`
	Fix         FixType   `json:"fixType"`
	Applied     bool      `json:"applied"`
	Confidence  float64   `json:"confidence"`
	Note        string    `json:"note,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	Timestamp   time.Time `json:"timestamp"`
}

// LoopRequest carries everything one healing loop needs.
type LoopRequest struct {
	TestFile string
	Config   Config
	Verify   VerifyFunc
	Source   SourceStore
	Logger   *zap.Logger // optional
}

// LoopResult is the loop's final report. ErrorCountHistory holds the error
// count of the initial verification and of each re-verification, in order;
// it is a convergence signal for diagnosis, not a stop condition — the loop
// is bounded by attempts, never by wall clock or error counts.
type LoopResult struct {
	TestFile          string          `json:"testFile"`
	Success           bool            `json:"success"`
	FinalState        State           `json:"finalState"`
	Attempts          int             `json:"attempts"`
	AppliedFix        *FixType        `json:"appliedFix,omitempty"`
	ErrorCountHistory []int           `json:"errorCountHistory"`
	History           []AttemptRecord `json:"history"`
	Recommendation    string          `json:"recommendation,omitempty"`
}

// ErrBadRequest is returned for structurally invalid loop requests.
var ErrBadRequest = errors.New("healing: invalid loop request")

// RunLoop drives classify -> pick fix -> apply -> reverify for one test
// file until it passes, attempts run out, every applicable fix has been
// tried, or the failure is unhealable. It always terminates within
// Config.MaxAttempts verification retries for any verify function.
// Cancellation is observed between attempts and finishes the loop in its
// current state; an in-flight fix is never rolled back.
func RunLoop(ctx context.Context, req LoopRequest) (LoopResult, error) {
	res := LoopResult{TestFile: req.TestFile, FinalState: StateUnverified}
	if req.Verify == nil || req.Source == nil {
		return res, fmt.Errorf("%w: verify function and source store are required", ErrBadRequest)
	}
	if err := req.Config.Validate(); err != nil {
		return res, err
	}
	log := req.Logger
	if log == nil {
		log = zap.NewNop()
	}

	vr, err := req.Verify(ctx)
	if err != nil {
		return res, fmt.Errorf("initial verification: %w", err)
	}
	res.ErrorCountHistory = append(res.ErrorCountHistory, len(vr.Errors))
	if vr.Status == VerifyPassed {
		res.Success = true
		res.FinalState = StatePassed
		return res, nil
	}

	cls := classifyFirst(vr.Errors)
	res.FinalState = StateFailing
	log.Info("healing loop engaged",
		zap.String("test_file", req.TestFile),
		zap.String("category", string(cls.Category)),
		zap.String("fingerprint", cls.Fingerprint))

	if cls.Category.Unhealable() {
		res.FinalState = StateUnhealable
		res.Recommendation = Recommend(cls.Category)
		return res, nil
	}

	var attempted []FixType
	for res.Attempts < req.Config.MaxAttempts {
		if err := ctx.Err(); err != nil {
			// Cooperative cancellation between attempts: report the loop
			// as it stands.
			return res, err
		}

		fix, ok := NextFix(cls, attempted, req.Config)
		if !ok {
			res.FinalState = StateExhausted
			res.Recommendation = Recommend(cls.Category)
			return res, nil
		}
		attempted = append(attempted, fix)

		res.FinalState = StateFixing
		strategy, ok := StrategyFor(fix)
		if !ok {
			// Rule table and strategies disagree; programming error.
			return res, fmt.Errorf("%w: no strategy for fix %q", ErrBadRequest, fix)
		}
		source, err := req.Source.Read()
		if err != nil {
			return res, fmt.Errorf("read source: %w", err)
		}
		sr := strategy.Apply(source, cls, req.Config)
		res.History = append(res.History, AttemptRecord{
			Attempt:     res.Attempts + 1,
			Fix:         fix,
			Applied:     sr.Applied,
			Confidence:  sr.Confidence,
			Note:        sr.Note,
			Fingerprint: cls.Fingerprint,
			Timestamp:   time.Now().UTC(),
		})
		if !sr.Applied {
			// Already in target state or nothing to edit; re-verifying
			// would burn an attempt on an unchanged file. Try the next fix.
			res.FinalState = StateFailing
			log.Debug("fix not applicable",
				zap.String("fix", string(fix)), zap.String("note", sr.Note))
			continue
		}
		if err := req.Source.Write(sr.Source); err != nil {
			return res, fmt.Errorf("write source: %w", err)
		}

		res.FinalState = StateReverifying
		res.Attempts++
		vr, err = req.Verify(ctx)
		if err != nil {
			return res, fmt.Errorf("verification attempt %d: %w", res.Attempts, err)
		}
		res.ErrorCountHistory = append(res.ErrorCountHistory, len(vr.Errors))
		if vr.Status == VerifyPassed {
			res.Success = true
			res.FinalState = StatePassed
			f := fix
			res.AppliedFix = &f
			log.Info("healed", zap.String("test_file", req.TestFile), zap.String("fix", string(fix)))
			return res, nil
		}

		next := classifyFirst(vr.Errors)
		if next.Fingerprint == cls.Fingerprint {
			// Circuit breaker: the fix was applied but the identical
			// failure came back, so it had no effect. Stop early instead
			// of burning the remaining attempts.
			res.FinalState = StateExhausted
			res.Recommendation = Recommend(cls.Category)
			log.Warn("fix had no effect, breaking",
				zap.String("fix", string(fix)), zap.String("fingerprint", cls.Fingerprint))
			return res, nil
		}
		cls = next
		res.FinalState = StateFailing
		if cls.Category.Unhealable() {
			res.FinalState = StateUnhealable
			res.Recommendation = Recommend(cls.Category)
			return res, nil
		}
	}

	res.FinalState = StateExhausted
	res.Recommendation = Recommend(cls.Category)
	return res, nil
}

// classifyFirst classifies a run's errors and returns the first unique one.
func classifyFirst(errs []string) classify.Classification {
	if len(errs) == 0 {
		return classify.Classify("")
	}
	var cs []classify.Classification
	for _, e := range errs {
		cs = append(cs, classify.Classify(e))
	}
	return classify.Dedupe(cs)[0]
}

// RunLoops heals several test files concurrently. Loops are independent
// per file; the limit bounds simultaneous verification runs since those are
// the expensive external operations.
func RunLoops(ctx context.Context, reqs []LoopRequest, limit int) ([]LoopResult, error) {
	if limit < 1 {
		limit = 1
	}
	results := make([]LoopResult, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, req := range reqs {
		g.Go(func() error {
			r, err := RunLoop(gctx, req)
			results[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
