package mock

import (
	"testing"

	"github.com/uilabs-dev/selfheal/pkg/driver"
)

func TestEmitResponse_DeliversToHandlers(t *testing.T) {
	page := NewPage()

	var got []string
	page.OnResponse(func(r driver.Response) {
		got = append(got, r.URL())
	})
	page.OnResponse(func(r driver.Response) {
		got = append(got, r.URL())
	})

	page.EmitResponse(Response{ResponseURL: "http://app.local/api", StatusCode: 200})

	if len(got) != 2 {
		t.Fatalf("expected 2 handler invocations, got %d", len(got))
	}
	for _, url := range got {
		if url != "http://app.local/api" {
			t.Errorf("handler saw URL %q", url)
		}
	}
}

func TestEmitResponse_NoHandlers(t *testing.T) {
	page := NewPage()
	page.EmitResponse(Response{ResponseURL: "http://app.local", StatusCode: 204})
}

func TestVisibleButton_AttrsWritable(t *testing.T) {
	btn := VisibleButton("Go")
	btn.Attrs["id"] = "go"

	page := NewPage()
	page.AddElement("#go", btn)

	id, err := btn.GetAttribute("id")
	if err != nil {
		t.Fatalf("GetAttribute: %v", err)
	}
	if id != "go" {
		t.Errorf("id = %q, want %q", id, "go")
	}
}
