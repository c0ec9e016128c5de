package viz

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/autodrive/internal/automation"
	"github.com/san-kum/autodrive/internal/config"
	"github.com/san-kum/autodrive/internal/experiment"
	"github.com/san-kum/autodrive/internal/physics"
)

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(4, 2)
	c.DrawLine(0, 0, 7, 7)
	for i := 0; i < 8; i++ {
		if !c.IsSet(i, i) {
			t.Errorf("expected (%d, %d) set", i, i)
		}
	}
	if c.IsSet(7, 0) {
		t.Error("expected (7, 0) clear")
	}
	c.Set(100, 100)
	c.Clear()
	if c.IsSet(0, 0) {
		t.Error("expected clear canvas")
	}
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Set(0, 0) // bottom-left dot of the bottom-left cell
	c.Set(3, 7) // top-right dot of the top-right cell

	rows := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if want := string([]rune{0x2800, 0x2800 + 0x08}); rows[0] != want {
		t.Errorf("top row: expected %q, got %q", want, rows[0])
	}
	if want := string([]rune{0x2800 + 0x40, 0x2800}); rows[1] != want {
		t.Errorf("bottom row: expected %q, got %q", want, rows[1])
	}
}

func TestFieldViewPixel(t *testing.T) {
	v := NewFieldView(physics.DefaultField(), 48, 24)
	if x, y := v.Pixel(physics.Point{X: 0, Y: 0}); x != 0 || y != 0 {
		t.Errorf("south-west corner should map to (0, 0), got (%d, %d)", x, y)
	}
	if x, y := v.Pixel(physics.Point{X: 144, Y: 144}); x != 95 || y != 95 {
		t.Errorf("north-east corner should map to (95, 95), got (%d, %d)", x, y)
	}

	v.DrawField()
	if !v.IsSet(0, 50) || !v.IsSet(95, 50) {
		t.Error("expected the west and east walls drawn")
	}
	v.DrawRobot(physics.Pose{X: 72, Y: 72})
	if x, y := v.Pixel(physics.Point{X: 72, Y: 72}); !v.IsSet(x, y) {
		t.Error("expected the robot centre drawn")
	}
}

func samples() []experiment.Sample {
	out := make([]experiment.Sample, 20)
	for i := range out {
		out[i] = experiment.Sample{X: 13 + float64(i), Y: 130, Heading: float64(i % 3), Target: 0, Reading: float64(i % 3)}
	}
	return out
}

func TestPlotSeries(t *testing.T) {
	graph, err := PlotSeries(samples(), []string{"heading", "error"}, 40, 5)
	if err != nil {
		t.Fatalf("plot failed: %v", err)
	}
	if !strings.Contains(graph, "heading, error") {
		t.Errorf("expected caption, got\n%s", graph)
	}

	if _, err := PlotSeries(samples(), []string{"altitude"}, 40, 5); err == nil {
		t.Error("expected error for unknown series")
	}
	if _, err := PlotSeries(nil, []string{"heading"}, 40, 5); err == nil {
		t.Error("expected error for no samples")
	}
	if len(SeriesNames()) != len(Series) {
		t.Error("series names incomplete")
	}
}

func TestPlotPath(t *testing.T) {
	path := PlotPath(physics.DefaultField(), samples(), 24, 12)
	if lines := strings.Split(strings.TrimRight(path, "\n"), "\n"); len(lines) != 12 {
		t.Errorf("expected 12 rows, got %d", len(lines))
	}
}

func TestPowerBar(t *testing.T) {
	full := PowerBar(1, 10)
	if strings.Count(full, "█") != 5 {
		t.Errorf("expected 5 filled cells, got %q", full)
	}
	reverse := PowerBar(-0.4, 10)
	if strings.Count(reverse, "█") != 2 {
		t.Errorf("expected 2 filled cells, got %q", reverse)
	}
	if strings.Index(reverse, "█") > strings.Index(reverse, "│") {
		t.Error("reverse power should fill left of centre")
	}
}

func TestLiveModel(t *testing.T) {
	exp := experiment.New(config.DefaultConfig(), nil)
	routine := automation.GetPreset("square")
	if err := exp.Setup(routine); err != nil {
		t.Fatal(err)
	}

	m := NewLiveModel(context.Background(), exp, routine)
	if m.Init() == nil {
		t.Fatal("expected init commands")
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
	m = next.(LiveModel)
	if m.showGraph {
		t.Error("expected graph hidden")
	}

	msg := m.run()
	next, _ = m.Update(msg)
	m = next.(LiveModel)
	res, err := m.Result()
	if err != nil || res == nil {
		t.Fatalf("expected a finished run, got %v", err)
	}
	if !strings.Contains(m.View(), "done") {
		t.Error("expected done status")
	}

	_, cmd := m.Update(TickMsg{})
	if cmd != nil {
		t.Error("expected ticking to stop once done")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("expected quit command")
	}
}
