package overlay

import (
	"database/sql"
	"encoding/json"

	"github.com/golang/glog"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// NPCLocation is one row of the server's npc_locations table.
type NPCLocation struct {
	ID       int32  `json:"id"`
	FileName string `json:"file_name"`
	NPCName  string `json:"npc_name"`
	X        uint32 `json:"x"`
	Y        uint32 `json:"y"`
	Z        uint8  `json:"z"`
}

// ParseNPCDB reads NPC placements from the server's sqlite database.
// Rows that fail to scan are skipped with a warning so a single bad
// entry does not lose the whole overlay.
func ParseNPCDB(path string) ([]NPCLocation, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening NPC database %s", path)
	}
	defer db.Close()

	rows, err := db.Query("SELECT id, file_name, npc_name, x, y, z FROM npc_locations")
	if err != nil {
		return nil, errors.Wrap(err, "querying npc_locations")
	}
	defer rows.Close()

	var npcs []NPCLocation
	row := 0
	for rows.Next() {
		row++
		var n NPCLocation
		if err := rows.Scan(&n.ID, &n.FileName, &n.NPCName, &n.X, &n.Y, &n.Z); err != nil {
			glog.Warningf("skipping NPC row %d: %v", row, err)
			continue
		}
		npcs = append(npcs, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating npc_locations")
	}

	glog.V(1).Infof("parsed %d NPCs from %s", len(npcs), path)
	return npcs, nil
}

type npcMarker struct {
	ID       int32  `json:"id"`
	FileName string `json:"file_name"`
	NPCName  string `json:"npc_name"`
	X        uint32 `json:"x"`
	Y        uint32 `json:"y"`
}

// NPCJSON renders the NPCs of the selected floors as the viewer's
// npcs.json payload.
func NPCJSON(npcs []NPCLocation, floors []uint8) ([]byte, error) {
	byFloor := make(map[uint8][]npcMarker)
	for _, f := range floors {
		// Empty list for NPC-less floors, same shape as SpawnJSON.
		byFloor[f] = []npcMarker{}
	}
	for _, n := range npcs {
		markers, ok := byFloor[n.Z]
		if !ok {
			continue
		}
		byFloor[n.Z] = append(markers, npcMarker{
			ID:       n.ID,
			FileName: n.FileName,
			NPCName:  n.NPCName,
			X:        n.X,
			Y:        n.Y,
		})
	}

	out, err := json.Marshal(map[string]interface{}{"npcs_by_floor": byFloor})
	if err != nil {
		return nil, errors.Wrap(err, "encoding NPC data")
	}
	return out, nil
}
