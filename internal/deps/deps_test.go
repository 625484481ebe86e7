package deps

import "testing"

func TestCheckBinariesReportsMissing(t *testing.T) {
	statuses := CheckBinaries([]Requirement{
		{Name: "Ghost", Command: "definitely-not-a-real-binary-xyz"},
	})
	if len(statuses) != 1 {
		t.Fatalf("statuses = %d, want 1", len(statuses))
	}
	if statuses[0].Available {
		t.Fatal("missing binary reported available")
	}
	if statuses[0].Detail == "" {
		t.Fatal("missing binary should carry a detail message")
	}
}

func TestCheckBinariesHandlesUnconfigured(t *testing.T) {
	statuses := CheckBinaries([]Requirement{{Name: "Empty", Command: "  "}})
	if statuses[0].Available {
		t.Fatal("unconfigured command reported available")
	}
	if statuses[0].Detail != "command not configured" {
		t.Fatalf("detail = %q", statuses[0].Detail)
	}
}

func TestCheckBinariesFindsShell(t *testing.T) {
	statuses := CheckBinaries([]Requirement{
		{Name: "Shell", Command: "sh", Description: "present on any unix host"},
	})
	if !statuses[0].Available {
		t.Fatalf("sh not found: %s", statuses[0].Detail)
	}
}

func TestDefaultsAreOptional(t *testing.T) {
	for _, req := range Defaults() {
		if !req.Optional {
			t.Errorf("%s must be optional", req.Name)
		}
	}
}
