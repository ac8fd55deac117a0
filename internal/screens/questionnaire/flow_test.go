package questionnaire

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/engine"
	"github.com/abhisek/taishitsu/internal/store"
)

// answerAll answers "No" everywhere except the listed questions.
func answerAll(t *testing.T, f *Flow, yes map[int][]string, text string) {
	t.Helper()
	cat := catalog.Default()
	for !f.Done() {
		st, _ := f.Current()
		switch st.Kind {
		case StepChoice:
			if _, ok := yes[st.Question.ID]; ok {
				f.Choose(cat.PositiveAnswer())
			} else {
				f.Choose("No")
			}
		case StepFollowUp:
			f.Select(yes[st.Question.ID])
		case StepFreeText:
			f.Write(text)
		}
	}
}

func TestFlowInsertsFollowUpsAfterYes(t *testing.T) {
	cat := catalog.Default()
	f := NewFlow(cat)

	_, total := f.Progress()
	assert.Equal(t, len(cat.Questions()), total)

	f.Choose("Yes")
	st, ok := f.Current()
	require.True(t, ok)
	assert.Equal(t, StepFollowUp, st.Kind)
	assert.Equal(t, 0, st.Question.ID)

	_, total = f.Progress()
	assert.Equal(t, len(cat.Questions())+1, total)
}

func TestFlowResponses(t *testing.T) {
	cat := catalog.Default()
	f := NewFlow(cat)
	answerAll(t, f, map[int][]string{
		0: {"Shortness of breath", "Weak voice"},
		6: nil,
	}, "tired all day")

	raw := f.Responses()
	assert.Equal(t, "Yes", raw["question_0"])
	assert.Equal(t, "Shortness of breath, Weak voice", raw["question_0_follow_up_0"])
	assert.Equal(t, cat.NoneSelected(), raw["question_6_follow_up_0"])
	assert.Equal(t, "No", raw["question_1"])
	assert.NotContains(t, raw, "question_1_follow_up_0")
	assert.Equal(t, "tired all day", raw["question_10"])
	q0, _ := cat.Question(0)
	assert.Equal(t, q0.Text, raw["question_0_question"])

	res := engine.New(cat, engine.WithJitter(engine.NoJitter)).DiagnoseMap(raw)
	assert.Equal(t, catalog.Category("qi-deficiency"), res.Category)
}

func TestFlowBackAndChangeDropsFollowUps(t *testing.T) {
	f := NewFlow(catalog.Default())
	f.Choose("Yes")
	f.Select([]string{"Weak voice"})

	require.True(t, f.Back())
	require.True(t, f.Back())
	assert.False(t, f.Back())

	f.Choose("No")
	st, _ := f.Current()
	assert.Equal(t, StepChoice, st.Kind)
	assert.Equal(t, 1, st.Question.ID)
	assert.Nil(t, f.Selection(0, 0))
	assert.NotContains(t, f.Responses(), "question_0_follow_up_0")
}

func TestFlowIgnoresWrongStepKind(t *testing.T) {
	f := NewFlow(catalog.Default())
	f.Write("text")
	f.Select([]string{"x"})
	n, _ := f.Progress()
	assert.Equal(t, 1, n)
}

func press(s *QuestionnaireScreen, keys ...tea.KeyPressMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = s.Update(k)
	}
	return cmd
}

var (
	enter = tea.KeyPressMsg{Code: tea.KeyEnter}
	down  = tea.KeyPressMsg{Code: tea.KeyDown}
	space = tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
)

func TestScreenSubmitsOnce(t *testing.T) {
	cat := catalog.Default()
	var got map[string]string
	var gotProfile store.Profile
	calls := 0
	s := New(cat, store.Profile{Age: "30-39", Gender: "Other"}, func(p store.Profile, raw map[string]string) tea.Cmd {
		calls++
		gotProfile, got = p, raw
		return nil
	})

	// Q1 yes, tick the first symptom.
	press(s, enter, space, enter)
	// Remaining single-choice questions: No.
	for {
		st, ok := s.Flow().Current()
		if !ok || st.Kind == StepFreeText {
			break
		}
		press(s, down, enter)
	}
	for _, r := range "stiff" {
		s.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	press(s, enter)
	press(s, enter)

	require.Equal(t, 1, calls)
	assert.Equal(t, "30-39", gotProfile.Age)
	assert.Equal(t, "Yes", got["question_0"])
	assert.Equal(t, "Shortness of breath", got["question_0_follow_up_0"])
	assert.Equal(t, "No", got["question_9"])
	assert.Equal(t, "stiff", got["question_10"])
	assert.Contains(t, s.View(100, 30), "Scoring")
}

func TestScreenShiftTabGoesBack(t *testing.T) {
	s := New(catalog.Default(), store.Profile{}, nil)
	press(s, down, enter)
	n, _ := s.Flow().Progress()
	require.Equal(t, 2, n)

	s.Update(tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	n, _ = s.Flow().Progress()
	assert.Equal(t, 1, n)
	assert.Equal(t, "No", s.choice.Value())
}
