package dom

import (
	"strings"
	"testing"
)

func TestFindContainer_SemanticTags(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<html><body><nav>menu</nav><article><p>Body text.</p></article></body></html>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := FindContainer(doc, "")
	if c == nil || c.Data != "article" {
		t.Fatalf("expected article container, got %v", c)
	}
}

func TestFindContainer_WikipediaProfile(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<html><body>
<div id="mw-content-text"><div class="mw-parser-output"><p>Wiki text.</p></div></div>
</body></html>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := FindContainer(doc, "wikipedia")
	if c == nil {
		t.Fatal("no container")
	}
	found := false
	for _, attr := range c.Attr {
		if attr.Key == "id" && attr.Val == "mw-content-text" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected mw-content-text container, got <%s %v>", c.Data, c.Attr)
	}
}

func TestFindContainer_ContentID(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<html><body><div id="content"><p>Text.</p></div></body></html>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := FindContainer(doc, "")
	found := false
	for _, attr := range c.Attr {
		if attr.Key == "id" && attr.Val == "content" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected #content container, got <%s>", c.Data)
	}
}

func TestFindContainer_DensestBlock(t *testing.T) {
	long := strings.Repeat("Plenty of paragraph prose to push this over the density floor. ", 5)
	doc, err := Parse(strings.NewReader(`<html><body>
<div id="sidebar"><p>short</p></div>
<div id="story"><p>` + long + `</p></div>
</body></html>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := FindContainer(doc, "")
	found := false
	for _, attr := range c.Attr {
		if attr.Key == "id" && attr.Val == "story" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected densest div #story, got <%s %v>", c.Data, c.Attr)
	}
}

func TestFindContainer_BodyFallback(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<html><body><p>Just a bare page.</p></body></html>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := FindContainer(doc, "")
	if c == nil || c.Data != "body" {
		t.Errorf("expected body fallback, got %v", c)
	}
}
