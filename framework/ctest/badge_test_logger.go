package ctest

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/widgetharness/widget-test-harness/framework"
)

var (
	badgePassColor = lipgloss.Color("#44CC11") //nolint:gochecknoglobals
	badgeFailColor = lipgloss.Color("#E05D44") //nolint:gochecknoglobals
	badgeWarnColor = lipgloss.Color("#DFB317") //nolint:gochecknoglobals
)

// BadgeTestLogger prints a pass/fail badge such as "Tests 24/26" when the run ends. It ignores
// per-test notifications.
type BadgeTestLogger struct {
	// Out defaults to os.Stdout.
	Out io.Writer
}

func (BadgeTestLogger) TestStarted(TestID)                                        {}
func (BadgeTestLogger) TestError(TestID, error)                                   {}
func (BadgeTestLogger) TestFinished(TestID, TestResult, framework.CapturedOutput) {}
func (BadgeTestLogger) TestSkipped(TestID, string)                                {}

func (b BadgeTestLogger) EndLog(results Results) error {
	out := b.Out
	if out == nil {
		out = os.Stdout
	}
	_, err := fmt.Fprintln(out, RenderBadge(results))
	return err
}

// RenderBadge draws the run summary. The badge is green if every test passed, amber if only
// non-critical tests failed, and red otherwise.
func RenderBadge(results Results) string {
	bg := badgePassColor
	switch {
	case !results.OK():
		bg = badgeFailColor
	case len(results.NonCriticalFailures) > 0:
		bg = badgeWarnColor
	}
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(bg).
		Padding(0, 1)
	badge := style.Render(results.Summary())
	if n := len(results.Skipped); n > 0 {
		badge = lipgloss.JoinHorizontal(lipgloss.Center, badge,
			lipgloss.NewStyle().Faint(true).PaddingLeft(1).Render(fmt.Sprintf("(%d skipped)", n)))
	}
	return badge
}
