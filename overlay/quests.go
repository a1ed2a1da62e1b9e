package overlay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-mapper/secmap"
)

// QuestChest is a chest with a quest number, found by scanning the
// sector files for ChestQuestNumber attributes.
type QuestChest struct {
	QuestNumber   uint32 `json:"quest_number"`
	X             uint32 `json:"x"`
	Y             uint32 `json:"y"`
	Z             uint8  `json:"z"`
	ChestObjectID uint32 `json:"chest_object_id"`
	QuestName     string `json:"quest_name,omitempty"`
}

// Chest object ids form a contiguous range in the catalog; anything in
// it found near the front of a Content list identifies the chest model.
const (
	chestObjectIDMin = 2543
	chestObjectIDMax = 2560
)

// ParseQuestCSV loads quest number to name mappings from a CSV with a
// header row: "number,name[,anything]". Malformed rows warn and are
// skipped.
func ParseQuestCSV(path string) (map[uint32]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading quest csv %q", path)
	}

	names := make(map[uint32]string)
	for i, line := range strings.Split(string(content), "\n") {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, ",", 3)
		if len(parts) < 2 {
			glog.Warningf("quest csv line %d: want at least 2 columns", i+1)
			continue
		}
		number, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
		if err != nil {
			glog.Warningf("quest csv line %d: bad quest number: %v", i+1, err)
			continue
		}
		names[uint32(number)] = strings.TrimSpace(parts[1])
	}

	glog.V(1).Infof("loaded %d quest names from %s", len(names), path)
	return names, nil
}

// ParseQuestChests scans every sector file of the selected floors for
// lines carrying a ChestQuestNumber attribute. Coordinates are absolute
// world tiles. A line that fails to parse warns and is skipped.
func ParseQuestChests(mapDir string, floors []uint8, questNames map[uint32]string) ([]QuestChest, error) {
	entries, err := os.ReadDir(mapDir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading map directory %q", mapDir)
	}

	wanted := make(map[uint8]bool, len(floors))
	for _, f := range floors {
		wanted[f] = true
	}

	var chests []QuestChest
	for _, entry := range entries {
		sectorX, sectorY, z, ok := secmap.SectorCoords(entry.Name())
		if !ok || !wanted[z] {
			continue
		}

		content, err := os.ReadFile(filepath.Join(mapDir, entry.Name()))
		if err != nil {
			glog.Warningf("failed to read %s: %v", entry.Name(), err)
			continue
		}

		for i, line := range strings.Split(string(content), "\n") {
			if !strings.Contains(line, "ChestQuestNumber=") {
				continue
			}
			chest, ok := parseQuestChestLine(line, sectorX, sectorY, z, questNames)
			if !ok {
				glog.Warningf("%s:%d: failed to parse quest chest line", entry.Name(), i+1)
				continue
			}
			chests = append(chests, chest)
		}
	}

	glog.V(1).Infof("parsed %d quest chests from sector files", len(chests))
	return chests, nil
}

func parseQuestChestLine(line string, sectorX, sectorY uint32, z uint8, questNames map[uint32]string) (QuestChest, bool) {
	posPart, contentPart, found := strings.Cut(line, ":")
	if !found {
		return QuestChest{}, false
	}

	coords := strings.Split(posPart, "-")
	if len(coords) != 2 {
		return QuestChest{}, false
	}
	localX, err := strconv.ParseUint(strings.TrimSpace(coords[0]), 10, 32)
	if err != nil {
		return QuestChest{}, false
	}
	localY, err := strconv.ParseUint(strings.TrimSpace(coords[1]), 10, 32)
	if err != nil {
		return QuestChest{}, false
	}

	questNumber, ok := extractQuestNumber(contentPart)
	if !ok {
		return QuestChest{}, false
	}

	return QuestChest{
		QuestNumber:   questNumber,
		X:             sectorX*secmap.SectorSize + uint32(localX),
		Y:             sectorY*secmap.SectorSize + uint32(localY),
		Z:             z,
		ChestObjectID: extractChestObjectID(contentPart),
		QuestName:     questNames[questNumber],
	}, true
}

func extractQuestNumber(content string) (uint32, bool) {
	const prefix = "ChestQuestNumber="
	idx := strings.Index(content, prefix)
	if idx < 0 {
		return 0, false
	}
	rest := content[idx+len(prefix):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	n, err := strconv.ParseUint(rest[:end], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// extractChestObjectID looks at the leading Content entries for an id
// in the chest model range. Zero means no chest model was identified.
func extractChestObjectID(content string) uint32 {
	idx := strings.Index(content, "Content={")
	if idx < 0 {
		return 0
	}
	rest := content[idx+len("Content={"):]
	end := strings.Index(rest, "}")
	if end < 0 {
		return 0
	}

	entries := strings.Split(rest[:end], ",")
	for i, entry := range entries {
		if i >= 3 {
			break
		}
		fields := strings.Fields(entry)
		if len(fields) == 0 {
			continue
		}
		id, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			continue
		}
		if id >= chestObjectIDMin && id <= chestObjectIDMax {
			return uint32(id)
		}
	}
	return 0
}

type questChestMarker struct {
	QuestNumber uint32 `json:"quest_number"`
	X           uint32 `json:"x"`
	Y           uint32 `json:"y"`
	QuestName   string `json:"quest_name,omitempty"`
}

// QuestChestJSON renders the chests of the selected floors as the
// viewer's questchests.json payload.
func QuestChestJSON(chests []QuestChest, floors []uint8) ([]byte, error) {
	byFloor := make(map[uint8][]questChestMarker)
	for _, f := range floors {
		// Empty list for chestless floors, same shape as SpawnJSON.
		byFloor[f] = []questChestMarker{}
	}
	for _, c := range chests {
		markers, ok := byFloor[c.Z]
		if !ok {
			continue
		}
		byFloor[c.Z] = append(markers, questChestMarker{
			QuestNumber: c.QuestNumber,
			X:           c.X,
			Y:           c.Y,
			QuestName:   c.QuestName,
		})
	}

	out, err := json.Marshal(map[string]interface{}{"questchests_by_floor": byFloor})
	if err != nil {
		return nil, errors.Wrap(err, "encoding quest chest data")
	}
	return out, nil
}
