package models

import (
	"encoding/json"
	"testing"
)

func TestSidebarListKeyedByIDInOrder(t *testing.T) {
	list := SidebarList{
		{Sidebar: Sidebar{ID: "sidebar-1", Name: "Main"}, Content: Content{Raw: "<p>a</p>", BlockVersion: 0}},
		{Sidebar: Sidebar{ID: "footer", Name: "Footer"}},
	}
	data, err := json.Marshal(list)
	if err != nil {
		t.Fatal(err)
	}

	var obj map[string]SidebarData
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("list is not an object: %v\n%s", err, data)
	}
	if obj["sidebar-1"].Name != "Main" || obj["footer"].Name != "Footer" {
		t.Fatalf("object = %+v", obj)
	}

	var back SidebarList
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if len(back) != 2 || back[0].ID != "sidebar-1" || back[1].ID != "footer" {
		t.Fatalf("order lost: %+v", back)
	}
	if back[0].Content.Raw != "<p>a</p>" {
		t.Fatalf("content = %+v", back[0].Content)
	}
}

func TestSidebarListEmpty(t *testing.T) {
	data, err := json.Marshal(SidebarList{})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Fatalf("empty list = %s", data)
	}
}

func TestAssignmentJSON(t *testing.T) {
	as := Assignments{}
	if err := json.Unmarshal([]byte(`{"sidebar-1":["text-2"],"footer":7,"aside":"12","gone":null}`), &as); err != nil {
		t.Fatal(err)
	}
	if !as["footer"].IsDocument() || as["footer"].DocumentID != 7 || as["aside"].DocumentID != 12 {
		t.Fatalf("document assignments = %+v", as)
	}
	if w := as["sidebar-1"].Widgets; len(w) != 1 || w[0] != "text-2" {
		t.Fatalf("widgets = %v", w)
	}
	if as["gone"].IsDocument() || len(as["gone"].Widgets) != 0 {
		t.Fatalf("null assignment = %+v", as["gone"])
	}
}
