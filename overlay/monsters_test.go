package overlay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestParseMonsterDB(t *testing.T) {
	path := writeTempFile(t, "monster.db", `# spawn table
17 32100 32200 7 3 2 60

42 32110 32210 8 1 1 120 # a cave troll
0
99 99 99 99 99 99 99
`)

	spawns, err := ParseMonsterDB(path)
	if err != nil {
		t.Fatalf("ParseMonsterDB: %v", err)
	}
	if len(spawns) != 2 {
		t.Fatalf("got %d spawns, want 2 (end marker should stop the table)", len(spawns))
	}

	want := MonsterSpawn{Race: 17, X: 32100, Y: 32200, Z: 7, Radius: 3, Amount: 2, Regen: 60}
	if spawns[0] != want {
		t.Errorf("spawns[0] = %+v, want %+v", spawns[0], want)
	}
	if spawns[1].Race != 42 || spawns[1].Z != 8 {
		t.Errorf("spawns[1] = %+v, inline comment should not affect fields", spawns[1])
	}
}

func TestParseMonsterDBShortLineSkipped(t *testing.T) {
	path := writeTempFile(t, "monster.db", "17 32100 32200\n42 32110 32210 8 1 1 120\n")

	spawns, err := ParseMonsterDB(path)
	if err != nil {
		t.Fatalf("ParseMonsterDB: %v", err)
	}
	if len(spawns) != 1 || spawns[0].Race != 42 {
		t.Errorf("got %+v, want only the complete line", spawns)
	}
}

func TestParseMonsterDBBadField(t *testing.T) {
	path := writeTempFile(t, "monster.db", "17 32100 oops 7 3 2 60\n")
	if _, err := ParseMonsterDB(path); err == nil {
		t.Errorf("ParseMonsterDB succeeded on an unparseable field, want error")
	}
}

func TestParseMonsterDBFloorRange(t *testing.T) {
	path := writeTempFile(t, "monster.db", "17 32100 32200 300 3 2 60\n")
	if _, err := ParseMonsterDB(path); err == nil {
		t.Errorf("ParseMonsterDB succeeded on floor 300, want error")
	}
}

func TestSpawnJSON(t *testing.T) {
	spawns := []MonsterSpawn{
		{Race: 17, X: 1, Y: 2, Z: 7, Radius: 3, Amount: 2, Regen: 60},
		{Race: 18, X: 3, Y: 4, Z: 9, Radius: 1, Amount: 1, Regen: 60},
	}

	out, err := SpawnJSON(spawns, []uint8{7, 8})
	if err != nil {
		t.Fatalf("SpawnJSON: %v", err)
	}

	var decoded struct {
		ByFloor map[string][]spawnMarker `json:"spawns_by_floor"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("unmarshalling output: %v", err)
	}
	if len(decoded.ByFloor["7"]) != 1 {
		t.Errorf("floor 7 has %d spawns, want 1", len(decoded.ByFloor["7"]))
	}
	if got, ok := decoded.ByFloor["8"]; !ok || len(got) != 0 {
		t.Errorf("floor 8 = %v, want present and empty", got)
	}
	if _, ok := decoded.ByFloor["9"]; ok {
		t.Errorf("floor 9 present in output, but was not selected")
	}
}
