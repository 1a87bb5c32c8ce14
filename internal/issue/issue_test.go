// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	ids := []Id{
		MainFileNotFoundId,
		NotTeXFileId,
		OutputDirInvalidId,
		CompilerNotFoundId,
		CompilationFailedId,
		UnresolvedReferencesId,
		ConfigLoadFailedId,
		PermissionDeniedId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	if MainFileNotFoundId != 1 {
		t.Errorf("MainFileNotFoundId = %d, want 1", MainFileNotFoundId)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{MainFileNotFoundId, false, "Main file not found"},
		{NotTeXFileId, false, "Not a TeX document"},
		{OutputDirInvalidId, false, "Output directory cannot be used"},
		{CompilerNotFoundId, false, "Compiler not found"},
		{CompilationFailedId, false, "Compilation failed"},
		{UnresolvedReferencesId, false, "Unresolved references"},
		{ConfigLoadFailedId, false, "Failed to load configuration"},
		{PermissionDeniedId, false, "Permission denied"},
		{Id(9999), true, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			issue := Get(tt.id)

			if tt.wantNil {
				if issue != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}

			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if issue.Id() != tt.id {
				t.Errorf("Id() = %d, want %d", issue.Id(), tt.id)
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain %q", tt.id, tt.contains)
			}
		})
	}
}

func TestValuesAreOrderedAndComplete(t *testing.T) {
	issues := Values()

	if len(issues) != len(PermissionDeniedId.all()) {
		t.Fatalf("Values() returned %d issues, want %d", len(issues), len(PermissionDeniedId.all()))
	}
	for i, issue := range issues {
		if issue.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, issue.Id(), i+1)
		}
		if issue.Title() == "" {
			t.Errorf("issue %d has no title", issue.Id())
		}
		if issue.MarkdownMsg() == "" {
			t.Errorf("issue %d has empty MarkdownMsg", issue.Id())
		}
	}
}

// all lists the ids from 1 up to and including id.
func (id Id) all() []Id {
	var ids []Id
	for i := Id(1); i <= id; i++ {
		ids = append(ids, i)
	}
	return ids
}

func TestIssue_ExtLinksIsAClone(t *testing.T) {
	issue := Get(CompilerNotFoundId)
	links := issue.ExtLinks()
	if len(links) == 0 {
		t.Fatal("CompilerNotFound should link to a TeX distribution")
	}

	original := links[0]
	links[0] = "modified"
	if issue.ExtLinks()[0] != original {
		t.Error("ExtLinks() should return a clone")
	}
}

func TestIssue_Markdown(t *testing.T) {
	withLinks := &Issue{
		id:       Id(9999),
		mdMsg:    "# Test Issue\n\nThis is a test.",
		extLinks: []HttpLink{"https://external.example.com"},
	}
	md := withLinks.Markdown()
	if !strings.Contains(md, "## See also") || !strings.Contains(md, "<https://external.example.com>") {
		t.Errorf("Markdown() with links = %q", md)
	}

	noLinks := &Issue{id: Id(9998), mdMsg: "# Test Issue"}
	if strings.Contains(noLinks.Markdown(), "See also") {
		t.Error("Markdown() without links should not contain 'See also'")
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	var styles []string
	render = func(in string, stylePath string) (string, error) {
		styles = append(styles, stylePath)
		return in, nil
	}

	for _, issue := range Values() {
		rendered, err := issue.Render("notty")
		if err != nil {
			t.Errorf("issue %d failed to render: %v", issue.Id(), err)
		}
		if rendered == "" {
			t.Errorf("issue %d rendered to empty string", issue.Id())
		}
	}

	for _, s := range styles {
		if s != "notty" {
			t.Errorf("style path %q was not passed through", s)
		}
	}
}

func TestRenderWithGlamour(t *testing.T) {
	out, err := Get(MainFileNotFoundId).Render("notty")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(out, "Main file not found") {
		t.Errorf("rendered output should contain the heading, got %q", out)
	}
}
