package main

import (
	"flag"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// config mirrors the command line flags so a build can be described in
// a checked-in YAML file instead of a long invocation.
type config struct {
	GamePath       string `yaml:"game_path"`
	SpritePath     string `yaml:"sprite_path"`
	Output         string `yaml:"output"`
	Floors         string `yaml:"floors"`
	MinZoom        *uint  `yaml:"min_zoom"`
	MaxZoom        *uint  `yaml:"max_zoom"`
	CacheDir       string `yaml:"cache_dir"`
	DataPath       string `yaml:"data_path"`
	MonsterSprites string `yaml:"monster_sprites"`
	NPCDB          string `yaml:"npc_db"`
	QuestCSV       string `yaml:"quest_csv"`
	Flat           *bool  `yaml:"flat"`
}

func loadConfig(path string) (*config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %q", path)
	}
	cfg := &config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %q", path)
	}
	return cfg, nil
}

// apply copies config values into flag variables, except for flags the
// user set explicitly on the command line, which win.
func (c *config) apply() {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	applyString := func(name string, value string, dst *string) {
		if value != "" && !set[name] {
			*dst = value
		}
	}
	applyString("game_path", c.GamePath, gamePath)
	applyString("sprite_path", c.SpritePath, spritePath)
	applyString("output", c.Output, outputPath)
	applyString("floors", c.Floors, floorsFlag)
	applyString("cache_dir", c.CacheDir, cacheDir)
	applyString("data_path", c.DataPath, dataPath)
	applyString("monster_sprites", c.MonsterSprites, monsterSprites)
	applyString("npc_db", c.NPCDB, npcDBPath)
	applyString("quest_csv", c.QuestCSV, questCSVPath)

	if c.MinZoom != nil && !set["min_zoom"] {
		*minZoom = *c.MinZoom
	}
	if c.MaxZoom != nil && !set["max_zoom"] {
		*maxZoom = *c.MaxZoom
	}
	if c.Flat != nil && !set["flat"] {
		*flatEnabled = *c.Flat
	}
}
