package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/sutra/internal/character"
	"github.com/matsen/sutra/internal/config"
	"github.com/matsen/sutra/internal/storage"
)

func init() {
	rootCmd.AddCommand(characterCmd)

	characterAddCmd.Flags().StringP("color", "c", "", "Hex color (default "+character.DefaultColor+")")
	characterAddCmd.Flags().StringP("description", "d", "", "Short description")
	characterAddCmd.Flags().String("role", "", "Role in the story")
	characterAddCmd.Flags().String("motivation", "", "What drives the character")
	characterAddCmd.Flags().String("goal", "", "What the character wants")
	characterAddCmd.Flags().String("conflict", "", "What stands in the way")
	characterAddCmd.Flags().String("epiphany", "", "What the character learns")
	characterCmd.AddCommand(characterAddCmd)
	characterCmd.AddCommand(characterListCmd)
	characterCmd.AddCommand(characterDeleteCmd)

	rootCmd.AddCommand(relationCmd)
	relationAddCmd.Flags().StringP("label", "l", "", "Free-text label, e.g. \"older sister\"")
	relationCmd.AddCommand(relationAddCmd)
	relationCmd.AddCommand(relationListCmd)
}

var characterCmd = &cobra.Command{
	Use:     "character",
	Aliases: []string{"char"},
	Short:   "Manage the cast",
}

// CharacterAddResult is the response for the character add command.
type CharacterAddResult struct {
	Status    string              `json:"status"`
	Character character.Character `json:"character"`
}

var characterAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a character",
	Args:  cobra.ExactArgs(1),
	RunE:  runCharacterAdd,
}

func runCharacterAdd(cmd *cobra.Command, args []string) error {
	p := mustOpenProject()
	defer p.close()

	colorFlag, _ := cmd.Flags().GetString("color")
	clr, err := character.NormalizeColor(colorFlag)
	if err != nil {
		exitWithError(ExitDataError, "invalid character: %v", err)
	}

	path := config.CharactersPath(p.root)
	chars, err := storage.ReadAllCharacters(path)
	if err != nil {
		exitWithError(ExitDataError, "reading characters: %v", err)
	}

	c := character.Character{
		ID:        storage.NextCharacterID(chars),
		ProjectID: p.cfg.ProjectID,
		Name:      strings.TrimSpace(args[0]),
		Color:     clr,
	}
	c.Description, _ = cmd.Flags().GetString("description")
	c.Role, _ = cmd.Flags().GetString("role")
	c.Motivation, _ = cmd.Flags().GetString("motivation")
	c.Goal, _ = cmd.Flags().GetString("goal")
	c.Conflict, _ = cmd.Flags().GetString("conflict")
	c.Epiphany, _ = cmd.Flags().GetString("epiphany")

	if err := c.ValidateForCreate(); err != nil {
		exitWithError(ExitDataError, "invalid character: %v", err)
	}
	if err := storage.AppendCharacter(path, c); err != nil {
		exitWithError(ExitDataError, "writing character: %v", err)
	}
	mustRebuild(p.db, p.root)

	if humanOutput {
		fmt.Printf("Added character %d: %s (%s)\n", c.ID, c.Name, character.Initials(c.Name))
	} else {
		outputJSON(CharacterAddResult{Status: "created", Character: c})
	}
	return nil
}

// CharacterListResult is the response for the character list command.
type CharacterListResult struct {
	Characters []character.Character `json:"characters"`
	Count      int                   `json:"count"`
}

var characterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List characters",
	RunE:  runCharacterList,
}

func runCharacterList(cmd *cobra.Command, args []string) error {
	p := mustOpenProject()
	defer p.close()

	chars, err := p.db.ListCharacters(cmd.Context(), p.cfg.ProjectID)
	if err != nil {
		exitWithError(ExitDataError, "querying characters: %v", err)
	}

	if humanOutput {
		if len(chars) == 0 {
			fmt.Println("No characters yet")
			return nil
		}
		for _, c := range chars {
			fmt.Printf("%4d  %-4s %s", c.ID, character.Initials(c.Name), c.Name)
			if c.Role != "" {
				subtleColor.Printf("  %s", c.Role)
			}
			fmt.Println()
		}
	} else {
		if chars == nil {
			chars = []character.Character{}
		}
		outputJSON(CharacterListResult{Characters: chars, Count: len(chars)})
	}
	return nil
}

// CharacterDeleteResult is the response for the character delete command.
type CharacterDeleteResult struct {
	Status               string `json:"status"`
	ID                   int64  `json:"id"`
	RelationshipsRemoved int    `json:"relationships_removed"`
	AppearancesRemoved   int    `json:"appearances_removed"`
}

var characterDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a character with its relationships and appearances",
	Args:  cobra.ExactArgs(1),
	RunE:  runCharacterDelete,
}

func runCharacterDelete(cmd *cobra.Command, args []string) error {
	id := mustParseID(args[0])
	p := mustOpenProject()
	defer p.close()

	charsPath := config.CharactersPath(p.root)
	chars, err := storage.ReadAllCharacters(charsPath)
	if err != nil {
		exitWithError(ExitDataError, "reading characters: %v", err)
	}
	chars, found := storage.DeleteCharacterFromSlice(chars, id)
	if !found {
		exitWithError(ExitNotFound, "character %d not found", id)
	}

	relsPath := config.RelationshipsPath(p.root)
	rels, err := storage.ReadAllRelationships(relsPath)
	if err != nil {
		exitWithError(ExitDataError, "reading relationships: %v", err)
	}
	rels, relsRemoved := storage.RemoveRelationshipsFor(rels, id)

	appsPath := config.AppearancesPath(p.root)
	apps, err := storage.ReadAllAppearances(appsPath)
	if err != nil {
		exitWithError(ExitDataError, "reading appearances: %v", err)
	}
	apps, appsRemoved := storage.RemoveAppearancesFor(apps, id)

	// Dependents are written before the character itself.
	if relsRemoved > 0 {
		if err := storage.WriteAllRelationships(relsPath, rels); err != nil {
			exitWithError(ExitDataError, "writing relationships: %v", err)
		}
	}
	if appsRemoved > 0 {
		if err := storage.WriteAllAppearances(appsPath, apps); err != nil {
			exitWithError(ExitDataError, "writing appearances: %v", err)
		}
	}
	if err := storage.WriteAllCharacters(charsPath, chars); err != nil {
		exitWithError(ExitDataError, "writing characters: %v", err)
	}
	mustRebuild(p.db, p.root)

	if humanOutput {
		fmt.Printf("Deleted character %d (%d relationships, %d appearances)\n", id, relsRemoved, appsRemoved)
	} else {
		outputJSON(CharacterDeleteResult{
			Status:               "deleted",
			ID:                   id,
			RelationshipsRemoved: relsRemoved,
			AppearancesRemoved:   appsRemoved,
		})
	}
	return nil
}

var relationCmd = &cobra.Command{
	Use:   "relation",
	Short: "Manage relationships between characters",
}

// RelationAddResult is the response for the relation add command.
type RelationAddResult struct {
	Status       string                 `json:"status"`
	Relationship character.Relationship `json:"relationship"`
}

var relationAddCmd = &cobra.Command{
	Use:   "add <character-a> <character-b> <type>",
	Short: "Link two characters",
	Long: `Link two characters with a typed relationship.

Types: ally, rival, mentor, love, family, enemy, other`,
	Args: cobra.ExactArgs(3),
	RunE: runRelationAdd,
}

func runRelationAdd(cmd *cobra.Command, args []string) error {
	a := mustParseID(args[0])
	b := mustParseID(args[1])
	typ, err := character.ParseRelationshipType(args[2])
	if err != nil {
		exitWithError(ExitDataError, "invalid relationship: %v", err)
	}
	label, _ := cmd.Flags().GetString("label")

	p := mustOpenProject()
	defer p.close()

	chars, err := storage.ReadAllCharacters(config.CharactersPath(p.root))
	if err != nil {
		exitWithError(ExitDataError, "reading characters: %v", err)
	}
	for _, id := range []int64{a, b} {
		if _, found := storage.FindCharacterByID(chars, id); !found {
			exitWithError(ExitNotFound, "character %d not found", id)
		}
	}

	path := config.RelationshipsPath(p.root)
	rels, err := storage.ReadAllRelationships(path)
	if err != nil {
		exitWithError(ExitDataError, "reading relationships: %v", err)
	}
	r := character.Relationship{
		ID:         storage.NextRelationshipID(rels),
		ProjectID:  p.cfg.ProjectID,
		CharacterA: a,
		CharacterB: b,
		Type:       typ,
		Label:      label,
	}
	if err := r.ValidateForCreate(); err != nil {
		exitWithError(ExitDataError, "invalid relationship: %v", err)
	}
	if err := storage.AppendRelationship(path, r); err != nil {
		exitWithError(ExitDataError, "writing relationship: %v", err)
	}
	mustRebuild(p.db, p.root)

	if humanOutput {
		fmt.Printf("Linked %d and %d as %s\n", a, b, typ)
	} else {
		outputJSON(RelationAddResult{Status: "created", Relationship: r})
	}
	return nil
}

// RelationListResult is the response for the relation list command.
type RelationListResult struct {
	Relationships []character.Relationship `json:"relationships"`
	Count         int                      `json:"count"`
}

var relationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List relationships",
	RunE:  runRelationList,
}

func runRelationList(cmd *cobra.Command, args []string) error {
	p := mustOpenProject()
	defer p.close()

	rels, err := p.db.ListRelationships(cmd.Context(), p.cfg.ProjectID)
	if err != nil {
		exitWithError(ExitDataError, "querying relationships: %v", err)
	}

	if humanOutput {
		chars, err := p.db.ListCharacters(cmd.Context(), p.cfg.ProjectID)
		if err != nil {
			exitWithError(ExitDataError, "querying characters: %v", err)
		}
		names := make(map[int64]string, len(chars))
		for _, c := range chars {
			names[c.ID] = c.Name
		}
		for _, r := range rels {
			fmt.Printf("%4d  %s - %s  %s", r.ID, names[r.CharacterA], names[r.CharacterB], r.Type)
			if r.Label != "" {
				subtleColor.Printf("  %s", r.Label)
			}
			fmt.Println()
		}
	} else {
		if rels == nil {
			rels = []character.Relationship{}
		}
		outputJSON(RelationListResult{Relationships: rels, Count: len(rels)})
	}
	return nil
}
