package nlp

import (
	"testing"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
)

func TestEntityExtractor_Statistical(t *testing.T) {
	e := NewEntityExtractor()

	mentions := e.Extract("A 2023 study showed a 40% increase in compliance costs.")
	if len(mentions) < 2 {
		t.Fatalf("Expected study and percentage mentions, got %v", mentions)
	}
	for _, m := range mentions {
		if m.Type != model.EvidenceStatistical {
			t.Errorf("Expected statistical type for %q, got %s", m.Source, m.Type)
		}
	}
}

func TestEntityExtractor_Legal(t *testing.T) {
	e := NewEntityExtractor()

	cases := []string{
		"The court settled this in Roe v. Wade years ago.",
		"Section 12 already covers this conduct.",
		"The Supreme Court ruled on this exact question.",
	}
	for _, text := range cases {
		mentions := e.Extract(text)
		if len(mentions) == 0 {
			t.Errorf("Expected a legal mention in %q", text)
			continue
		}
		if mentions[0].Type != model.EvidenceLegalPrecedent {
			t.Errorf("Expected legal_precedent for %q, got %s", text, mentions[0].Type)
		}
	}
}

func TestEntityExtractor_Expert(t *testing.T) {
	e := NewEntityExtractor()

	mentions := e.Extract("Professor Okafor warned about exactly this outcome.")
	if len(mentions) == 0 {
		t.Fatal("Expected an expert mention")
	}
	if mentions[0].Type != model.EvidenceExpertOpinion {
		t.Errorf("Expected expert_opinion, got %s", mentions[0].Type)
	}
}

func TestEntityExtractor_Anecdotal(t *testing.T) {
	e := NewEntityExtractor()

	mentions := e.Extract("In my experience the permit office takes months to respond.")
	if len(mentions) != 1 {
		t.Fatalf("Expected one anecdotal mention, got %v", mentions)
	}
	if mentions[0].Type != model.EvidenceAnecdotal {
		t.Errorf("Expected anecdotal, got %s", mentions[0].Type)
	}
}

func TestEntityExtractor_StatisticalBeatsExpert(t *testing.T) {
	e := NewEntityExtractor()

	// "according to ... data" matches both a statistical and an expert
	// pattern; precedence keeps the higher-weight type
	mentions := e.Extract("According to the data, enrollment fell sharply.")
	if len(mentions) == 0 {
		t.Fatal("Expected a mention")
	}
	for _, m := range mentions {
		if m.Type == model.EvidenceExpertOpinion {
			t.Errorf("Expected expert match suppressed by statistical span, got %v", m)
		}
	}
}

func TestEntityExtractor_NoEvidence(t *testing.T) {
	e := NewEntityExtractor()

	if mentions := e.Extract("This bill is simply wrong for our town."); len(mentions) != 0 {
		t.Errorf("Expected no mentions, got %v", mentions)
	}
}
