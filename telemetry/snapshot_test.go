package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/powder/components"
	"github.com/pthm-cable/powder/materials"
	"github.com/pthm-cable/powder/points"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	store := points.New(8, 6)
	sand, _ := store.Add(1, 5, materials.Sand)
	store.Data(sand).SetTemperature(55)
	store.Velocity(sand).Y = 1.5
	head, _ := store.Add(4, 2, materials.Worm)
	body, _ := store.Add(3, 2, materials.WormBody)
	store.Data(head).SetLink(body)
	store.Data(head).SetHeading(components.Right)
	cloner, _ := store.Add(7, 0, materials.Cloner)
	store.Data(cloner).SetCloneKind(materials.Water)

	snapshot := &Snapshot{
		Version:         SnapshotVersion,
		Seed:            42,
		Frame:           1000,
		Width:           8,
		Height:          6,
		BaseTemperature: 25,
		Processing:      true,
		Field:           make([]float64, 8*6),
	}
	for _, r := range store.Records() {
		snapshot.Points = append(snapshot.Points, NewPointState(r))
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if want := filepath.Join(tmpDir, "snapshot_1000.json"); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if !strings.Contains(string(data), `"kind": "sand"`) {
		t.Error("kinds are not written by name")
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.Seed != 42 || loaded.Frame != 1000 || loaded.BaseTemperature != 25 || !loaded.Processing {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if len(loaded.Points) != 4 {
		t.Fatalf("loaded %d points, want 4", len(loaded.Points))
	}

	restored := points.New(1, 1)
	if skipped := restored.Load(loaded.Width, loaded.Height, loaded.Records()); skipped != 0 {
		t.Fatalf("Load skipped %d records", skipped)
	}
	if restored.Len() != 4 {
		t.Fatalf("restored %d points, want 4", restored.Len())
	}

	e, ok := restored.At(1, 5)
	if !ok || restored.Kind(e) != materials.Sand {
		t.Fatal("sand not restored at (1,5)")
	}
	if got := restored.Data(e).TemperatureOr(0); got != 55 {
		t.Errorf("sand temperature = %v, want 55", got)
	}
	if got := restored.Velocity(e).Y; got != 1.5 {
		t.Errorf("sand vy = %v, want 1.5", got)
	}

	h, _ := restored.At(4, 2)
	hd := restored.Data(h)
	if !hd.Has(components.FieldLink) || restored.Position(hd.Link) != (components.Position{X: 3, Y: 2}) {
		t.Error("worm link not restored")
	}
	if !hd.Has(components.FieldHeading) || hd.Heading != components.Right {
		t.Errorf("worm heading = %v, want right", hd.Heading)
	}
	if hd.Has(components.FieldTemperature) {
		t.Error("unset temperature became set")
	}

	c, _ := restored.At(7, 0)
	if cd := restored.Data(c); !cd.Has(components.FieldCloneKind) || cd.CloneKind != materials.Water {
		t.Error("clone kind not restored")
	}
}

func TestLoadSnapshotRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{{{"},
		{"truncated", `{"version": 1, "width": 4, "height": 4, "points": [`},
		{"wrong version", `{"version": 99, "width": 4, "height": 4}`},
		{"zero width", `{"version": 1, "width": 0, "height": 4}`},
		{"field size", `{"version": 1, "width": 2, "height": 2, "field": [1, 2, 3]}`},
		{"unknown kind", `{"version": 1, "width": 2, "height": 2, "points": [{"id": 1, "x": 0, "y": 0, "kind": "unobtainium"}]}`},
		{"border point", `{"version": 1, "width": 2, "height": 2, "points": [{"id": 1, "x": 0, "y": 0, "kind": "border"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "snap.json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadSnapshot(path); err == nil {
				t.Error("LoadSnapshot accepted malformed input")
			}
		})
	}

	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadSnapshot accepted a missing file")
	}
}

func TestWriteSnapshotReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autosave.json")

	for frame := int32(1); frame <= 2; frame++ {
		s := &Snapshot{Version: SnapshotVersion, Frame: frame, Width: 2, Height: 2}
		if err := WriteSnapshot(s, path); err != nil {
			t.Fatalf("WriteSnapshot: %v", err)
		}
	}
	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if loaded.Frame != 2 {
		t.Errorf("frame = %d, want latest write 2", loaded.Frame)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}
