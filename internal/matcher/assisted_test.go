package matcher

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/arxivnotify/internal/metrics"
	"github.com/hitoshi/arxivnotify/internal/model"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// mockClassifier はテスト用のClassifier実装。
type mockClassifier struct {
	classifyFn func(ctx context.Context, paperText string, keywords []string) (*Classification, error)
	calls      int
}

func (m *mockClassifier) Classify(ctx context.Context, paperText string, keywords []string) (*Classification, error) {
	m.calls++
	return m.classifyFn(ctx, paperText, keywords)
}

func score(v float64) *float64 { return &v }

var testPaper = model.Paper{
	Title:   "Scaling Transformers",
	Summary: "Transformer models are trained at scale.",
	Link:    "http://arxiv.org/abs/1",
}

func TestAssisted_UsesClassification(t *testing.T) {
	var buf bytes.Buffer
	mc := &mockClassifier{classifyFn: func(ctx context.Context, paperText string, keywords []string) (*Classification, error) {
		if !strings.Contains(paperText, "Scaling Transformers") {
			t.Errorf("paperText = %q", paperText)
		}
		return &Classification{Relevant: true, Score: score(0.9), MatchedKeywords: []string{"transformer"}, Explanation: "on topic"}, nil
	}}

	r := NewAssisted(mc, nil, newTestLogger(&buf)).Match(context.Background(), testPaper, []string{"transformer"})

	if !r.IsRelevant || r.Score != 0.9 || r.Explanation != "on topic" {
		t.Errorf("Result = %+v", r)
	}
	if len(r.MatchedKeywords) != 1 || r.MatchedKeywords[0] != "transformer" {
		t.Errorf("MatchedKeywords = %v", r.MatchedKeywords)
	}
}

func TestAssisted_ScoreOverridesFlag(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		score float64
		want  bool
	}{
		{0.7, true},
		{0.95, true},
		{0.69, false},
	}
	for _, tt := range tests {
		mc := &mockClassifier{classifyFn: func(context.Context, string, []string) (*Classification, error) {
			return &Classification{Relevant: false, Score: score(tt.score)}, nil
		}}
		r := NewAssisted(mc, nil, newTestLogger(&buf)).Match(context.Background(), testPaper, []string{"x"})
		if r.IsRelevant != tt.want {
			t.Errorf("score %v: IsRelevant = %v, want %v", tt.score, r.IsRelevant, tt.want)
		}
	}
}

// TestAssisted_FailureEqualsLexical は分類が失敗した場合に文字列マッチングと同じ結果になることを検証する。
func TestAssisted_FailureEqualsLexical(t *testing.T) {
	keywords := []string{"transformer", "graph"}
	want := MatchText(testPaper.Text(), keywords)

	failures := map[string]func(context.Context, string, []string) (*Classification, error){
		"error": func(context.Context, string, []string) (*Classification, error) {
			return nil, errors.New("connection reset")
		},
		"missing score": func(context.Context, string, []string) (*Classification, error) {
			return &Classification{Relevant: true}, nil
		},
		"score out of range": func(context.Context, string, []string) (*Classification, error) {
			return &Classification{Relevant: true, Score: score(7)}, nil
		},
		"nil classification": func(context.Context, string, []string) (*Classification, error) {
			return nil, nil
		},
	}

	for name, fn := range failures {
		t.Run(name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			var buf bytes.Buffer
			a := NewAssisted(&mockClassifier{classifyFn: fn}, metrics.NewCollector(reg), newTestLogger(&buf))

			got := a.Match(context.Background(), testPaper, keywords)
			if got.IsRelevant != want.IsRelevant || got.Score != want.Score ||
				strings.Join(got.MatchedKeywords, ",") != strings.Join(want.MatchedKeywords, ",") {
				t.Errorf("Result = %+v, want lexical %+v", got, want)
			}

			families, _ := reg.Gather()
			found := false
			for _, mf := range families {
				if mf.GetName() == "arxivnotify_assisted_fallbacks_total" {
					found = true
				}
			}
			if !found {
				t.Error("fallback should be recorded in metrics")
			}
		})
	}
}

func TestAssisted_NilClassifierFallsBack(t *testing.T) {
	var buf bytes.Buffer
	r := NewAssisted(nil, nil, newTestLogger(&buf)).Match(context.Background(), testPaper, []string{"transformer"})
	if !r.IsRelevant || r.Score != RelevanceThreshold {
		t.Errorf("Result = %+v, want lexical match", r)
	}
}

func TestParseClassification(t *testing.T) {
	c, err := parseClassification("```json\n{\"relevant\":true,\"score\":0.8,\"matched_keywords\":[\"a\"],\"explanation\":\"e\"}\n```")
	if err != nil {
		t.Fatalf("parseClassification returned error: %v", err)
	}
	if !c.Relevant || c.Score == nil || *c.Score != 0.8 {
		t.Errorf("Classification = %+v", c)
	}

	if _, err := parseClassification("not json"); !errors.Is(err, errInvalidClassification) {
		t.Errorf("error = %v, want errInvalidClassification", err)
	}
}
