// Package worlddata loads the static room graph and implements exit
// matching and gate-expression evaluation (spec.md §3 Rooms, §4.2.1, §6).
//
// Grounded on _examples/original_source/apps/shard_01/src/rooms.rs:
// Rooms::load, find_exit, normalize_dir_token, format_exit_label —
// translated from the Rust FlatBuffers+YAML-overlay loader into a
// YAML-only Go loader (the compiled-blob path is an explicit external
// build-pipeline concern per spec.md §1 Non-goals).
package worlddata

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Exit is one directed connection out of a room.
type Exit struct {
	Dir    string `yaml:"dir"`
	To     string `yaml:"to"`
	Sealed bool   `yaml:"-"`
	Gate   string `yaml:"gate"`
}

// Room is one node of the static or dynamic room graph.
type Room struct {
	ID          string
	Name        string
	Description string
	AreaName    string
	Exits       []Exit
}

// AreaSummary is the rendered-areas-list view of one loaded area.
type AreaSummary struct {
	ZoneID    string
	ZoneName  string
	StartRoom string
	RoomCount int
}

// areaFile mirrors the YAML area file schema (spec.md §6 option b).
type areaFile struct {
	Version   int        `yaml:"version"`
	ZoneID    string     `yaml:"zone_id"`
	ZoneName  string     `yaml:"zone_name"`
	StartRoom string     `yaml:"start_room"`
	Rooms     []areaRoom `yaml:"rooms"`
}

type areaRoom struct {
	ID    string     `yaml:"id"`
	Name  string     `yaml:"name"`
	Desc  string     `yaml:"desc"`
	Exits []areaExit `yaml:"exits"`
}

type areaExit struct {
	Dir   string `yaml:"dir"`
	To    string `yaml:"to"`
	State string `yaml:"state"`
	Gate  string `yaml:"gate"`
}

// Rooms holds the loaded static room graph plus a namespace of dynamic,
// instance-owned rooms that shadow it by id lookup (dynamic rooms win).
type Rooms struct {
	rooms     map[string]Room
	dynRooms  map[string]Room
	startRoom string
	areas     []AreaSummary
}

// Load reads every *.yaml file under dir as an area file and assembles the
// static room graph. The deterministic start room is
// newbie_school.orientation if present, else the start_room declared by the
// newbie_school area, else the first room of the first area file (sorted by
// file name) that has any rooms.
func Load(dir string) (*Rooms, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read world data dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	rooms := make(map[string]Room)
	var areas []AreaSummary
	var preferredStart string

	for _, fp := range files {
		data, err := os.ReadFile(fp)
		if err != nil {
			return nil, fmt.Errorf("read area file %s: %w", fp, err)
		}
		var a areaFile
		if err := yaml.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("parse area file %s: %w", fp, err)
		}

		areaName := a.ZoneName
		if areaName == "" {
			areaName = a.ZoneID
		}
		areas = append(areas, AreaSummary{
			ZoneID:    a.ZoneID,
			ZoneName:  areaName,
			StartRoom: a.StartRoom,
			RoomCount: len(a.Rooms),
		})

		for _, r := range a.Rooms {
			var exits []Exit
			for _, e := range r.Exits {
				dir := strings.TrimSpace(e.Dir)
				to := strings.TrimSpace(e.To)
				if dir == "" || to == "" {
					continue
				}
				exits = append(exits, Exit{
					Dir:    dir,
					To:     to,
					Sealed: strings.TrimSpace(e.State) == "sealed",
					Gate:   strings.TrimSpace(e.Gate),
				})
			}
			rooms[r.ID] = Room{
				ID:          r.ID,
				Name:        r.Name,
				Description: strings.TrimSpace(r.Desc),
				AreaName:    areaName,
				Exits:       exits,
			}
		}

		if preferredStart == "" && a.ZoneID == "newbie_school" && a.StartRoom != "" {
			preferredStart = a.StartRoom
		}
	}

	sort.Slice(areas, func(i, j int) bool { return areas[i].ZoneID < areas[j].ZoneID })

	startRoom := ""
	if _, ok := rooms["newbie_school.orientation"]; ok {
		startRoom = "newbie_school.orientation"
	}
	if startRoom == "" && preferredStart != "" {
		if _, ok := rooms[preferredStart]; ok {
			startRoom = preferredStart
		}
	}
	if startRoom == "" && len(areas) > 0 {
		// Fall back to the first room of the first area, in file order.
		for _, fp := range files {
			data, _ := os.ReadFile(fp)
			var a areaFile
			if yaml.Unmarshal(data, &a) == nil && len(a.Rooms) > 0 {
				startRoom = a.Rooms[0].ID
				break
			}
		}
	}

	return &Rooms{
		rooms:     rooms,
		dynRooms:  make(map[string]Room),
		startRoom: startRoom,
		areas:     areas,
	}, nil
}

// StartRoom returns the deterministic default start room id.
func (r *Rooms) StartRoom() string { return r.startRoom }

// Areas returns the loaded area summaries, sorted by zone id.
func (r *Rooms) Areas() []AreaSummary { return r.areas }

// HasRoom reports whether id resolves, dynamic rooms taking precedence.
func (r *Rooms) HasRoom(id string) bool {
	if _, ok := r.dynRooms[id]; ok {
		return true
	}
	_, ok := r.rooms[id]
	return ok
}

// Room resolves id to a Room, dynamic rooms taking precedence.
func (r *Rooms) Room(id string) (Room, bool) {
	if rm, ok := r.dynRooms[id]; ok {
		return rm, true
	}
	rm, ok := r.rooms[id]
	return rm, ok
}

// InsertRoom inserts or replaces a dynamically-built room.
func (r *Rooms) InsertRoom(id string, def Room) {
	r.dynRooms[id] = def
}

// ClearDynRoomsWithPrefix removes every dynamic room whose id starts with
// prefix (dot-normalized), returning the count removed.
func (r *Rooms) ClearDynRoomsWithPrefix(prefix string) int {
	p := prefix
	if !strings.HasSuffix(p, ".") {
		p += "."
	}
	var keys []string
	for k := range r.dynRooms {
		if strings.HasPrefix(k, p) {
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		delete(r.dynRooms, k)
	}
	return len(keys)
}

// FindExit resolves a movement token to an exit of room_id, using exact
// match, then direction-alias match, then unique single-letter prefix
// match — mirroring rooms.rs::find_exit.
func (r *Rooms) FindExit(roomID, token string) (Exit, bool) {
	room, ok := r.Room(roomID)
	if !ok {
		return Exit{}, false
	}
	t := strings.TrimSpace(token)
	if t == "" {
		return Exit{}, false
	}

	for _, ex := range room.Exits {
		if strings.EqualFold(ex.Dir, t) {
			return ex, true
		}
	}

	if canon, ok := normalizeDirToken(t); ok {
		for _, ex := range room.Exits {
			if strings.EqualFold(ex.Dir, canon) {
				return ex, true
			}
		}
		return Exit{}, false
	}

	tlc := strings.ToLower(t)
	if len(tlc) == 1 {
		var found *Exit
		for i := range room.Exits {
			if strings.HasPrefix(strings.ToLower(room.Exits[i].Dir), tlc) {
				if found != nil {
					return Exit{}, false // ambiguous
				}
				found = &room.Exits[i]
			}
		}
		if found != nil {
			return *found, true
		}
	}
	return Exit{}, false
}

// RenderExits renders the `exits: ...` line for a room.
func (r *Rooms) RenderExits(roomID string) string {
	room, ok := r.Room(roomID)
	if !ok {
		return "exits: (room not found)\r\n"
	}
	if len(room.Exits) == 0 {
		return "exits: none\r\n"
	}
	labels := make([]string, 0, len(room.Exits))
	for _, e := range room.Exits {
		labels = append(labels, formatExitLabel(e.Dir))
	}
	sort.Strings(labels)
	return fmt.Sprintf("exits: %s\r\n", strings.Join(labels, ", "))
}

// RenderRoom renders the full `== Name (Area) [id] ==` room view.
func (r *Rooms) RenderRoom(roomID string) string {
	room, ok := r.Room(roomID)
	if !ok {
		return "room not found\r\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "== %s (%s) [%s] ==\r\n", room.Name, room.AreaName, roomID)
	if room.Description != "" {
		b.WriteString(room.Description)
		b.WriteString("\r\n")
	}
	b.WriteString(r.RenderExits(roomID))
	return b.String()
}

func normalizeDirToken(s string) (string, bool) {
	switch strings.ToLower(s) {
	case "north", "n":
		return "north", true
	case "south", "s":
		return "south", true
	case "east", "e":
		return "east", true
	case "west", "w":
		return "west", true
	case "up", "u":
		return "up", true
	case "down", "d":
		return "down", true
	}
	return "", false
}

func formatExitLabel(dir string) string {
	switch strings.ToLower(dir) {
	case "north":
		return "north (n)"
	case "south":
		return "south (s)"
	case "east":
		return "east (e)"
	case "west":
		return "west (w)"
	case "up":
		return "up (u)"
	case "down":
		return "down (d)"
	case "back":
		return "back (b)"
	default:
		return dir
	}
}
