package usecase

import "testing"

func TestDetectCrisis(t *testing.T) {
	tests := []struct {
		texts    []string
		expected bool
	}{
		{[]string{"I want to die"}, true},
		{[]string{"Sometimes I think about SUICIDE"}, true},
		{[]string{"मैं आत्महत्या के बारे में सोचता हूं"}, true},
		{[]string{"मुझे डर लगता है", "I think about self harm"}, true},
		{[]string{"I had a rough day"}, false},
		{nil, false},
	}

	for _, tt := range tests {
		if got := DetectCrisis(tt.texts...); got != tt.expected {
			t.Errorf("DetectCrisis(%q): expected %v, got %v", tt.texts, tt.expected, got)
		}
	}
}

func TestResources(t *testing.T) {
	r := Resources()

	if r.Title != "Crisis Support" {
		t.Errorf("Expected title 'Crisis Support', got '%s'", r.Title)
	}
	if len(r.Hotlines) != 3 || len(r.Online) != 3 {
		t.Fatalf("Expected 3 hotlines and 3 online resources, got %d and %d", len(r.Hotlines), len(r.Online))
	}
	if r.Hotlines[0].Contact != "988 or 1-800-273-8255" {
		t.Errorf("Unexpected first hotline: %+v", r.Hotlines[0])
	}
}
