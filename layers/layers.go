// Package layers turns a tile's raw object stack into an ordered draw
// sequence for the painter's algorithm.
//
// Objects are assigned to exactly one of five layers, first matching
// rule wins, and the layers are concatenated in a fixed bottom-to-top
// order: Ground, Clip, Bottom, Normal, Top. Within one layer the source
// order of the stack is preserved. The result is purely functional:
// same stack and catalog in, same sequence out.
package layers

import (
	"strings"

	"badc0de.net/pkg/go-tibia-mapper/objects"
)

// Quest and loot containers stay visible even though they carry the
// Take flag like any other pickable item.
var chestIDs = map[uint32]bool{
	2543: true,
	2546: true,
	2550: true,
	2551: true,
	2552: true,
	2555: true,
	2560: true,
	4445: true,
	4830: true,
}

// isGroundFlower recognizes planted flowers and blossoms, which render
// as ground decoration. The flag set must be exactly {Unmove} or
// {Unmove, Avoid}: anything else is a flowery wall, a potted plant or a
// flower that already belongs to the Bottom layer.
func isGroundFlower(obj *objects.GameObject) bool {
	name := strings.ToLower(obj.Name)
	if !strings.Contains(name, "flower") && !strings.Contains(name, "blossom") {
		return false
	}

	flags := make(map[string]bool, len(obj.Flags))
	for _, f := range obj.Flags {
		flags[f] = true
	}

	switch len(flags) {
	case 1:
		return flags["Unmove"]
	case 2:
		return flags["Unmove"] && flags["Avoid"]
	}
	return false
}

// SelectSpriteLayers returns the ids of objIDs in bottom-to-top draw
// order. Ids absent from the catalog are dropped silently, takeable
// items are dropped unless they are containers.
func SelectSpriteLayers(objIDs []uint32, catalog objects.Catalog) []uint32 {
	var ground, clip, bottom, normal, top []uint32

	for _, id := range objIDs {
		obj, ok := catalog[id]
		if !ok {
			continue
		}

		isContainer := obj.HasFlag("Chest") || obj.HasFlag("Container")
		if obj.HasFlag("Take") && !chestIDs[id] && !isContainer {
			continue
		}

		switch {
		case obj.IsGround || obj.HasFlag("Bank"):
			ground = append(ground, id)
		case obj.HasFlag("Clip") || isGroundFlower(obj):
			clip = append(clip, id)
		case obj.HasFlag("Bottom") || obj.HasFlag("Text"):
			bottom = append(bottom, id)
		case obj.HasFlag("Top"):
			top = append(top, id)
		default:
			normal = append(normal, id)
		}
	}

	out := make([]uint32, 0, len(ground)+len(clip)+len(bottom)+len(normal)+len(top))
	out = append(out, ground...)
	out = append(out, clip...)
	out = append(out, bottom...)
	out = append(out, normal...)
	out = append(out, top...)
	return out
}
