package intent

import "testing"

func TestClassify_Keywords(t *testing.T) {
	tests := []struct {
		msg  string
		want Kind
	}{
		{"Make me a STUDY PLAN", StudyPlan},
		{"plan for the weekend", StudyPlan},
		{"I want to Learn Go", StudyPlan},
		{"how should I study", StudyPlan},
		{"students are great", Chat},
		{"hello", Chat},
		{"what's the weather?", Chat},
		{"search: best rust books", Chat},
	}

	for _, tc := range tests {
		t.Run(tc.msg, func(t *testing.T) {
			if got := Classify(tc.msg).Kind(); got != tc.want {
				t.Errorf("Classify(%q) = %q, want %q", tc.msg, got, tc.want)
			}
		})
	}
}

func TestExtractTopic(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"i want to learn rust programming", "rust programming"},
		{"study plan for machine learning?", "machine learning"},
		{"Study Plan For Linear Algebra please", "linear algebra"},
		{"plan for calculus please?", "calculus"},
		{"help me with   statistics  ", "statistics"},
		{"create a plan for databases", "databases"},
		{"Teach Me Studying Habits", "teach me studying habits"},
		{"  Learning   ", "learning"},
	}

	for _, tc := range tests {
		t.Run(tc.msg, func(t *testing.T) {
			if got := ExtractTopic(tc.msg); got != tc.want {
				t.Errorf("ExtractTopic(%q) = %q, want %q", tc.msg, got, tc.want)
			}
		})
	}
}

func TestClassify_TopicForStudyPlan(t *testing.T) {
	in := Classify("I want to learn Rust programming")
	if in.Kind() != StudyPlan {
		t.Fatalf("kind = %q, want %q", in.Kind(), StudyPlan)
	}
	if in.Topic() != "rust programming" {
		t.Errorf("topic = %q, want %q", in.Topic(), "rust programming")
	}
}

func TestClassify_ChatHasNoTopic(t *testing.T) {
	if topic := Classify("hello there").Topic(); topic != "" {
		t.Errorf("topic = %q, want empty", topic)
	}
}

func TestClassify_EmptyTopicAfterStripping(t *testing.T) {
	in := Classify("plan for ?")
	if in.Kind() != StudyPlan {
		t.Fatalf("kind = %q, want %q", in.Kind(), StudyPlan)
	}
	if in.Topic() != "" {
		t.Errorf("topic = %q, want empty", in.Topic())
	}
}

func TestClassify_Idempotent(t *testing.T) {
	msgs := []string{
		"study plan for machine learning?",
		"hello",
		"I want to learn rust programming",
		"LEARN",
	}
	for _, m := range msgs {
		a, b := Classify(m), Classify(m)
		if a != b {
			t.Errorf("Classify(%q) not idempotent: %+v vs %+v", m, a, b)
		}
	}
}
