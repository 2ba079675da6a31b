package runner

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"odyssey/internal/healing"
)

const failingStream = `{"Action":"run","Package":"journeys","Test":"TestCheckout"}
{"Action":"output","Package":"journeys","Test":"TestCheckout","Output":"=== RUN   TestCheckout\n"}
{"Action":"output","Package":"journeys","Test":"TestCheckout","Output":"    checkout_test.go:14: Timeout 30000ms exceeded.\n"}
{"Action":"output","Package":"journeys","Test":"TestCheckout","Output":"        waiting for locator('.submit-btn')\n"}
{"Action":"output","Package":"journeys","Test":"TestCheckout","Output":"--- FAIL: TestCheckout (30.00s)\n"}
{"Action":"fail","Package":"journeys","Test":"TestCheckout"}
{"Action":"output","Package":"journeys","Output":"FAIL\n"}
{"Action":"fail","Package":"journeys"}
`

func TestParseFailingTest(t *testing.T) {
	o := Parse([]byte(failingStream))
	require.True(t, o.Failed)
	require.Equal(t, []string{"TestCheckout"}, o.FailedTests)
	require.Len(t, o.Errors, 1)
	require.Equal(t, "checkout_test.go:14: Timeout 30000ms exceeded.\nwaiting for locator('.submit-btn')", o.Errors[0])
}

func TestParseKeepsErrorsParallelToFailedTests(t *testing.T) {
	// TestAlpha fails without a word of its own; its message slot must not
	// swallow TestBeta's, or the wrong test gets the blame downstream.
	stream := `{"Action":"output","Package":"journeys","Test":"TestAlpha","Output":"=== RUN   TestAlpha\n"}
{"Action":"output","Package":"journeys","Test":"TestAlpha","Output":"--- FAIL: TestAlpha (0.01s)\n"}
{"Action":"fail","Package":"journeys","Test":"TestAlpha"}
{"Action":"output","Package":"journeys","Test":"TestBeta","Output":"    beta_test.go:10: 403 (Forbidden): admin area\n"}
{"Action":"fail","Package":"journeys","Test":"TestBeta"}
{"Action":"fail","Package":"journeys"}
`
	o := Parse([]byte(stream))
	require.Equal(t, []string{"TestAlpha", "TestBeta"}, o.FailedTests)
	require.Len(t, o.Errors, len(o.FailedTests))
	require.Equal(t, "(no output)", o.Errors[0])
	require.Equal(t, "beta_test.go:10: 403 (Forbidden): admin area", o.Errors[1])
}

func TestParsePassingRun(t *testing.T) {
	stream := `{"Action":"run","Package":"journeys","Test":"TestCheckout"}
{"Action":"output","Package":"journeys","Test":"TestCheckout","Output":"=== RUN   TestCheckout\n"}
{"Action":"pass","Package":"journeys","Test":"TestCheckout"}
{"Action":"pass","Package":"journeys"}
`
	o := Parse([]byte(stream))
	require.False(t, o.Failed)
	require.Empty(t, o.Errors)
}

func TestParseBuildFailure(t *testing.T) {
	stream := `{"Action":"output","Package":"journeys","Output":"# journeys\n"}
{"Action":"output","Package":"journeys","Output":"./checkout_test.go:5:2: undefined: ui\n"}
{"Action":"fail","Package":"journeys"}
`
	o := Parse([]byte(stream))
	require.True(t, o.Failed)
	require.Equal(t, []string{"journeys"}, o.FailedTests)
	require.Len(t, o.Errors, 1)
	require.Contains(t, o.Errors[0], "undefined: ui")
}

func TestParseMultipleFailuresStableOrder(t *testing.T) {
	stream := `{"Action":"output","Package":"journeys","Test":"TestB","Output":"    b_test.go:3: expected 'x' but got 'y'\n"}
{"Action":"fail","Package":"journeys","Test":"TestB"}
{"Action":"output","Package":"journeys","Test":"TestA","Output":"    a_test.go:9: net::ERR_CONNECTION_REFUSED at http://api\n"}
{"Action":"fail","Package":"journeys","Test":"TestA"}
{"Action":"fail","Package":"journeys"}
`
	first := Parse([]byte(stream))
	require.Equal(t, []string{"TestA", "TestB"}, first.FailedTests)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Parse([]byte(stream)))
	}
}

func TestParseIgnoresFraming(t *testing.T) {
	for _, framing := range []string{"=== RUN   TestX", "--- FAIL: TestX (1.0s)", "FAIL", "PASS", "exit status 1"} {
		require.Empty(t, cleanLine(framing+"\n"), framing)
	}
	require.Equal(t, "real failure text", cleanLine("    real failure text\n"))
}

func TestParseToleratesNonJSONLines(t *testing.T) {
	stream := "go: downloading example.com/dep v1.0.0\n" + failingStream
	o := Parse([]byte(stream))
	require.True(t, o.Failed)
	require.Equal(t, []string{"TestCheckout"}, o.FailedTests)
}

func TestRunReportsMissingToolchain(t *testing.T) {
	r := New(t.TempDir())
	r.GoBinary = "odyssey-no-such-binary"
	_, err := r.Run(context.Background(), "TestAnything")
	require.Error(t, err)
	require.False(t, strings.Contains(err.Error(), "exit status"), "a missing binary is not a test failure")
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := New(t.TempDir())
	_, err := r.Run(ctx, "TestAnything")
	require.ErrorIs(t, err, context.Canceled)
}

func TestVerifyFuncShape(t *testing.T) {
	r := New(t.TempDir())
	r.GoBinary = "odyssey-no-such-binary"
	var vf healing.VerifyFunc = r.VerifyFunc("TestCheckout")
	_, err := vf(context.Background())
	require.Error(t, err)
}
