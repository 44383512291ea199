package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Catalogs is the static content the sim loads at startup: sector
// definitions and the faction diplomacy table. Content is digested so
// clients can cache by digest.
type Catalogs struct {
	Sectors  SectorCatalog
	Factions FactionCatalog
}

type SectorCatalog struct {
	ByID   map[string]SectorDef
	IDs    []string // sorted
	Digest string
}

type SectorDef struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Objects []ObjectDef `json:"objects"`
}

// ObjectDef is the raw catalog entry as authored in configs/sectors.
type ObjectDef struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Faction   string     `json:"faction,omitempty"`
	Position  [3]float64 `json:"position"`
	Wireframe string     `json:"wireframe,omitempty"`
	Diplomacy string     `json:"diplomacy,omitempty"`
}

type FactionCatalog struct {
	// Diplomacy maps faction name -> friendly/neutral/enemy.
	Diplomacy map[string]string
	Digest    string
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadSectors(filepath.Join(configDir, "sectors"), &c.Sectors); err != nil {
		return nil, err
	}
	if err := loadFactions(filepath.Join(configDir, "factions.json"), &c.Factions); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadSectors(dir string, out *SectorCatalog) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("sectors: %w", err)
	}
	out.ByID = map[string]SectorDef{}

	h := sha256.New()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("sectors/%s: %w", name, err)
		}
		h.Write(raw)

		var def SectorDef
		if err := json.Unmarshal(raw, &def); err != nil {
			return fmt.Errorf("sectors/%s: %w", name, err)
		}
		if def.ID == "" {
			return fmt.Errorf("sectors/%s: empty sector id", name)
		}
		if _, dup := out.ByID[def.ID]; dup {
			return fmt.Errorf("sectors/%s: duplicate sector id %s", name, def.ID)
		}
		for _, o := range def.Objects {
			if o.ID == "" {
				return fmt.Errorf("sectors/%s: object with empty id", name)
			}
			if !strings.HasPrefix(o.ID, def.ID+"_") {
				return fmt.Errorf("sectors/%s: object %s does not carry the %s_ prefix", name, o.ID, def.ID)
			}
		}
		out.ByID[def.ID] = def
		out.IDs = append(out.IDs, def.ID)
	}
	sort.Strings(out.IDs)
	out.Digest = hex.EncodeToString(h.Sum(nil))
	return nil
}

func loadFactions(path string, out *FactionCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("factions.json: %w", err)
	}
	out.Digest = sha256Hex(raw)

	var table map[string]string
	if err := json.Unmarshal(raw, &table); err != nil {
		return fmt.Errorf("factions.json: %w", err)
	}
	for faction, d := range table {
		switch d {
		case "friendly", "neutral", "enemy":
		default:
			return fmt.Errorf("factions.json: %q has invalid diplomacy %q", faction, d)
		}
	}
	out.Diplomacy = table
	return nil
}
