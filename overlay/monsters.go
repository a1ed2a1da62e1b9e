// Package overlay extracts auxiliary marker data for the viewer:
// monster spawns, quest chest locations and NPC positions, each emitted
// as a per-floor JSON artifact next to the tile tree.
//
// Overlay coordinates are absolute world tiles (sector * 32 + local);
// the viewer subtracts the build's tile origin itself.
package overlay

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// MonsterSpawn is one line of the server's monster.db spawn table.
type MonsterSpawn struct {
	Race   uint32 `json:"race"`
	X      uint32 `json:"x"`
	Y      uint32 `json:"y"`
	Z      uint8  `json:"z"`
	Radius uint32 `json:"radius"`
	Amount uint32 `json:"amount"`
	Regen  uint32 `json:"regen"`
}

// ParseMonsterDB reads the whitespace separated spawn table:
// "race x y z radius amount regen" per line, # comments, and a single
// "0" line marking the end of the table.
func ParseMonsterDB(path string) ([]MonsterSpawn, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading monster db %q", path)
	}

	var spawns []MonsterSpawn
	for i, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
			if line == "" {
				continue
			}
		}

		fields := strings.Fields(line)
		if len(fields) < 7 {
			if len(fields) == 1 && fields[0] == "0" {
				glog.V(1).Infof("monster db end marker at line %d", i+1)
				break
			}
			glog.Warningf("monster db line %d: got %d fields, want 7", i+1, len(fields))
			continue
		}

		var values [7]uint32
		for j, f := range fields[:7] {
			n, err := strconv.ParseUint(f, 10, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "monster db line %d: field %d %q", i+1, j+1, f)
			}
			values[j] = uint32(n)
		}
		if values[3] > 255 {
			return nil, errors.Errorf("monster db line %d: floor %d out of range", i+1, values[3])
		}

		spawns = append(spawns, MonsterSpawn{
			Race:   values[0],
			X:      values[1],
			Y:      values[2],
			Z:      uint8(values[3]),
			Radius: values[4],
			Amount: values[5],
			Regen:  values[6],
		})
	}

	glog.V(1).Infof("parsed %d monster spawns from %s", len(spawns), path)
	return spawns, nil
}

type spawnMarker struct {
	Race   uint32 `json:"race"`
	X      uint32 `json:"x"`
	Y      uint32 `json:"y"`
	Amount uint32 `json:"amount"`
	Radius uint32 `json:"radius"`
}

// SpawnJSON renders the spawns of the selected floors as the viewer's
// spawns.json payload.
func SpawnJSON(spawns []MonsterSpawn, floors []uint8) ([]byte, error) {
	byFloor := make(map[uint8][]spawnMarker)
	for _, f := range floors {
		// Every selected floor gets a key, empty list when it has no
		// spawns, so the viewer never sees a missing floor.
		byFloor[f] = []spawnMarker{}
	}
	for _, s := range spawns {
		markers, ok := byFloor[s.Z]
		if !ok {
			continue
		}
		byFloor[s.Z] = append(markers, spawnMarker{
			Race:   s.Race,
			X:      s.X,
			Y:      s.Y,
			Amount: s.Amount,
			Radius: s.Radius,
		})
	}

	out, err := json.Marshal(map[string]interface{}{"spawns_by_floor": byFloor})
	if err != nil {
		return nil, errors.Wrap(err, "encoding spawn data")
	}
	return out, nil
}
