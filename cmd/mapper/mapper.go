// Command mapper renders a game server's map into a zoomable tile
// pyramid with a static Leaflet viewer.
//
// The minimal invocation needs the server's game directory (holding
// dat/objects.srv and map/*.sec), a directory of per-object sprite
// PNGs, and a floor selection:
//
//	mapper --game_path=game --sprite_path=sprites --floors=0-15
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"
	"github.com/otiai10/copy"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-mapper/flatmap"
	"badc0de.net/pkg/go-tibia-mapper/mapcache"
	"badc0de.net/pkg/go-tibia-mapper/objects"
	"badc0de.net/pkg/go-tibia-mapper/overlay"
	"badc0de.net/pkg/go-tibia-mapper/paths"
	"badc0de.net/pkg/go-tibia-mapper/pyramid"
	"badc0de.net/pkg/go-tibia-mapper/secmap"
	"badc0de.net/pkg/go-tibia-mapper/sprites"
	"badc0de.net/pkg/go-tibia-mapper/viewer"
)

var (
	gamePath       = flag.String("game_path", "", "path to the game directory (dat/objects.srv, map/*.sec)")
	spritePath     = flag.String("sprite_path", "", "path to the directory of per-object sprite PNGs")
	outputPath     = flag.String("output", "output", "directory the tile tree and viewer are written to")
	floorsFlag     = flag.String("floors", "", "floors to generate, a single floor (\"7\") or a range (\"0-15\")")
	minZoom        = flag.Uint("min_zoom", 0, "lowest zoom level to generate")
	maxZoom        = flag.Uint("max_zoom", 5, "highest zoom level to generate")
	cacheDir       = flag.String("cache_dir", mapcache.DefaultDir, "directory for parsed catalog and floor artifacts")
	dataPath       = flag.String("data_path", "", "optional path to the server data repository (for game/dat/monster.db)")
	monsterSprites = flag.String("monster_sprites", "", "optional directory of monster PNGs named by race id")
	npcDBPath      = flag.String("npc_db", "", "optional path to the NPC location sqlite database")
	questCSVPath   = flag.String("quest_csv", "", "optional CSV mapping quest numbers to names")
	flatEnabled    = flag.Bool("flat", false, "also render the legacy flat-color map")

	// Registered through paths.SetupFilePathFlag so a mapper.yaml next
	// to the binary or under data/ is picked up automatically.
	configPath string
)

func main() {
	paths.SetupFilePathFlag("mapper.yaml", "config", &configPath)
	flagutil.Parse()

	if configPath != "" {
		cfg, err := loadConfig(configPath)
		if err != nil {
			glog.Exitf("%v", err)
		}
		cfg.apply()
	}

	if *gamePath == "" || *spritePath == "" {
		glog.Exitf("both --game_path and --sprite_path are required")
	}
	if *floorsFlag == "" {
		glog.Exitf("--floors is required (e.g. --floors=0-15)")
	}
	if *minZoom > *maxZoom || *maxZoom > 8 {
		glog.Exitf("bad zoom range %d-%d", *minZoom, *maxZoom)
	}

	floors, err := parseFloorRange(*floorsFlag)
	if err != nil {
		glog.Exitf("bad --floors %q: %v", *floorsFlag, err)
	}

	if err := run(floors); err != nil {
		glog.Exitf("%v", err)
	}
}

func run(floors []uint8) error {
	minZ, maxZ := uint8(*minZoom), uint8(*maxZoom)
	mapDir := filepath.Join(*gamePath, "map")

	if err := os.MkdirAll(filepath.Join(*cacheDir, "maps"), 0755); err != nil {
		return errors.Wrap(err, "creating cache directory")
	}
	if err := os.MkdirAll(*outputPath, 0755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	glog.Infof("catalog: %d objects", len(catalog))

	cache, err := sprites.NewCache(*spritePath)
	if err != nil {
		return err
	}
	ids := make([]uint32, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	if err := cache.Preload(ids); err != nil {
		return err
	}
	glog.Infof("sprite cache: %d sprites", cache.Size())

	bounds, err := secmap.Bounds(mapDir, floors)
	if err != nil {
		return err
	}

	totalTiles := 0
	for _, floor := range floors {
		m, err := loadFloor(mapDir, floor, bounds)
		if err != nil {
			return err
		}

		n, err := pyramid.Generate(m, cache, catalog, *outputPath, minZ, maxZ)
		if err != nil {
			return errors.Wrapf(err, "rendering floor %d", floor)
		}
		glog.Infof("floor %d: %d tiles", floor, n)
		totalTiles += n

		if *flatEnabled {
			flat := flatmap.Flatten(m, catalog)
			n, err := flatmap.Generate(flat, flatmap.ColorMap(catalog), *outputPath, minZ, maxZ)
			if err != nil {
				return errors.Wrapf(err, "rendering flat floor %d", floor)
			}
			glog.Infof("floor %d: %d flat tiles", floor, n)
			totalTiles += n
		}
	}

	tileBounds := viewer.TileBounds{
		MinX: bounds.MinX * secmap.SectorSize,
		MaxX: (bounds.MaxX+1)*secmap.SectorSize - 1,
		MinY: bounds.MinY * secmap.SectorSize,
		MaxY: (bounds.MaxY+1)*secmap.SectorSize - 1,
	}
	if err := viewer.Generate(*outputPath, floors, minZ, maxZ, tileBounds); err != nil {
		return err
	}

	if err := writeOverlays(floors); err != nil {
		return err
	}

	glog.Infof("build complete: %d tiles under %s", totalTiles, *outputPath)
	fmt.Printf("build complete: %s\n", filepath.Join(*outputPath, "index.html"))
	return nil
}

// loadCatalog parses objects.srv, going through the cache directory so
// repeat builds skip the parse.
func loadCatalog() (objects.Catalog, error) {
	cachePath := mapcache.CatalogPath(*cacheDir)
	if catalog, err := mapcache.LoadCatalog(cachePath); err == nil {
		glog.V(1).Infof("catalog loaded from cache %s", cachePath)
		return catalog, nil
	}

	catalog, err := objects.ParseCatalog(filepath.Join(*gamePath, "dat", "objects.srv"))
	if err != nil {
		return nil, err
	}
	if err := mapcache.StoreCatalog(cachePath, catalog); err != nil {
		glog.Warningf("failed to cache catalog: %v", err)
	}
	return catalog, nil
}

func loadFloor(mapDir string, floor uint8, bounds secmap.SectorBounds) (*secmap.SpriteMapData, error) {
	cachePath := mapcache.FloorPath(*cacheDir, floor)
	if m, err := mapcache.LoadFloor(cachePath); err == nil {
		// The artifact was normalized against the origin of whatever
		// floor set it was built with. A different floor set can move
		// the shared origin, and a floor rendered against the old one
		// would sit whole sectors away from the others in the viewer.
		if m.MinSectorX == bounds.MinX && m.MaxSectorX == bounds.MaxX &&
			m.MinSectorY == bounds.MinY && m.MaxSectorY == bounds.MaxY {
			glog.V(1).Infof("floor %d loaded from cache %s", floor, cachePath)
			return m, nil
		}
		glog.Infof("floor %d cache was built against sector box (%d,%d)-(%d,%d), want (%d,%d)-(%d,%d); re-parsing",
			floor, m.MinSectorX, m.MinSectorY, m.MaxSectorX, m.MaxSectorY,
			bounds.MinX, bounds.MinY, bounds.MaxX, bounds.MaxY)
	}

	m, err := secmap.ParseFloor(mapDir, floor, bounds)
	if err != nil {
		return nil, err
	}
	if err := mapcache.StoreFloor(cachePath, m); err != nil {
		glog.Warningf("failed to cache floor %d: %v", floor, err)
	}
	return m, nil
}

// writeOverlays emits the optional viewer data layers: monster spawns,
// quest chest markers and NPC positions. Each layer is independent and
// only produced when its inputs were given.
func writeOverlays(floors []uint8) error {
	if *dataPath != "" && *monsterSprites != "" {
		if err := writeSpawnOverlay(floors); err != nil {
			return err
		}
	}

	if *questCSVPath != "" {
		if err := writeQuestOverlay(floors); err != nil {
			return err
		}
	}

	if *npcDBPath != "" {
		if err := writeNPCOverlay(floors); err != nil {
			return err
		}
	}

	return nil
}

func writeSpawnOverlay(floors []uint8) error {
	spawns, err := overlay.ParseMonsterDB(filepath.Join(*dataPath, "game", "dat", "monster.db"))
	if err != nil {
		return err
	}

	monstersDir := filepath.Join(*outputPath, "monsters")
	if err := os.MkdirAll(monstersDir, 0755); err != nil {
		return errors.Wrap(err, "creating monsters directory")
	}

	copied := 0
	seen := map[uint32]bool{}
	for _, spawn := range spawns {
		if seen[spawn.Race] {
			continue
		}
		seen[spawn.Race] = true

		name := strconv.FormatUint(uint64(spawn.Race), 10) + ".png"
		src := filepath.Join(*monsterSprites, name)
		if _, err := os.Stat(src); err != nil {
			glog.Warningf("missing PNG for race %d: %s", spawn.Race, src)
			continue
		}
		if err := copy.Copy(src, filepath.Join(monstersDir, name)); err != nil {
			return errors.Wrapf(err, "copying monster sprite %s", src)
		}
		copied++
	}

	out, err := overlay.SpawnJSON(spawns, floors)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(*outputPath, "spawns.json"), out, 0644); err != nil {
		return errors.Wrap(err, "writing spawns.json")
	}

	glog.Infof("monster spawns: %d spawns, %d sprites copied", len(spawns), copied)
	return nil
}

func writeQuestOverlay(floors []uint8) error {
	questNames, err := overlay.ParseQuestCSV(*questCSVPath)
	if err != nil {
		return err
	}
	chests, err := overlay.ParseQuestChests(filepath.Join(*gamePath, "map"), floors, questNames)
	if err != nil {
		return err
	}
	out, err := overlay.QuestChestJSON(chests, floors)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(*outputPath, "questchests.json"), out, 0644); err != nil {
		return errors.Wrap(err, "writing questchests.json")
	}

	glog.Infof("quest chests: %d markers", len(chests))
	return nil
}

func writeNPCOverlay(floors []uint8) error {
	npcs, err := overlay.ParseNPCDB(*npcDBPath)
	if err != nil {
		return err
	}
	out, err := overlay.NPCJSON(npcs, floors)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(*outputPath, "npcs.json"), out, 0644); err != nil {
		return errors.Wrap(err, "writing npcs.json")
	}

	glog.Infof("NPCs: %d markers", len(npcs))
	return nil
}

// parseFloorRange accepts a single floor ("7") or an inclusive range
// ("0-15").
func parseFloorRange(s string) ([]uint8, error) {
	if lo, hi, found := strings.Cut(s, "-"); found {
		start, err := strconv.ParseUint(lo, 10, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "bad range start %q", lo)
		}
		end, err := strconv.ParseUint(hi, 10, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "bad range end %q", hi)
		}
		if start > end {
			return nil, errors.Errorf("range start %d after end %d", start, end)
		}
		floors := make([]uint8, 0, end-start+1)
		for f := start; f <= end; f++ {
			floors = append(floors, uint8(f))
		}
		return floors, nil
	}

	f, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return nil, errors.Wrapf(err, "bad floor %q", s)
	}
	return []uint8{uint8(f)}, nil
}
