package review_test

import (
	"testing"

	"github.com/JaimeStill/rapid/internal/capability"
	"github.com/JaimeStill/rapid/internal/review"
)

func TestSelectStrategy(t *testing.T) {
	full := capability.Capability{EmbeddedDocument: true, Citation: true}
	noCitation := capability.Capability{EmbeddedDocument: true}
	none := capability.Default("unknown")

	pdf := []review.File{{Name: "doc_1.pdf"}}
	mixed := []review.File{{Name: "doc_1.pdf"}, {Name: "doc_2.png", Image: true}}

	tests := []struct {
		name      string
		files     []review.File
		cap       capability.Capability
		citations bool
		want      review.Strategy
	}{
		{
			"images always use tools",
			mixed, full, true,
			review.Strategy{Access: review.AccessTools, Content: review.ContentPlain, ReviewType: review.TypeImage},
		},
		{
			"embedded with citations",
			pdf, full, true,
			review.Strategy{Access: review.AccessEmbedded, Content: review.ContentCitations, ReviewType: review.TypePDF},
		},
		{
			"embedded without citation support",
			pdf, noCitation, true,
			review.Strategy{Access: review.AccessEmbedded, Content: review.ContentPlain, ReviewType: review.TypePDF},
		},
		{
			"citations disabled",
			pdf, full, false,
			review.Strategy{Access: review.AccessTools, Content: review.ContentPlain, ReviewType: review.TypePDF},
		},
		{
			"unknown model",
			pdf, none, true,
			review.Strategy{Access: review.AccessTools, Content: review.ContentPlain, ReviewType: review.TypePDF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := review.SelectStrategy(tt.files, tt.cap, tt.citations); got != tt.want {
				t.Errorf("SelectStrategy() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUseEmbeddedDocument(t *testing.T) {
	full := capability.Capability{EmbeddedDocument: true, Citation: true}

	tests := []struct {
		name      string
		hasImages bool
		cap       capability.Capability
		citations bool
		want      bool
	}{
		{"images", true, full, true, false},
		{"supported", false, full, true, true},
		{"flag off", false, full, false, false},
		{"no document support", false, capability.Capability{Citation: true}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := review.UseEmbeddedDocument(tt.hasImages, tt.cap, tt.citations); got != tt.want {
				t.Errorf("UseEmbeddedDocument() = %v, want %v", got, tt.want)
			}
		})
	}
}
