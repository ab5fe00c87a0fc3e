package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var brandsCmd = &cobra.Command{
	Use:   "brands",
	Short: "Manage saved brand names",
}

var brandsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved brands",
	Args:  cobra.NoArgs,
	RunE:  runBrandsList,
}

var brandsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Save a brand name",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBrandsAdd,
}

var brandsRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a saved brand",
	Long: `Rename changes the saved brand name. Purchases keep the brand text they
were recorded with.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runBrandsRename,
}

var brandsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved brand",
	Args:  cobra.ExactArgs(1),
	RunE:  runBrandsDelete,
}

func init() {
	brandsCmd.AddCommand(brandsListCmd)
	brandsCmd.AddCommand(brandsAddCmd)
	brandsCmd.AddCommand(brandsRenameCmd)
	brandsCmd.AddCommand(brandsDeleteCmd)
}

type brandJSON struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func runBrandsList(cmd *cobra.Command, args []string) error {
	brands, err := be.Brands.ListBrands(cmd.Context())
	if err != nil {
		return fmt.Errorf("list brands: %w", err)
	}

	if jsonOutput {
		out := make([]brandJSON, 0, len(brands))
		for _, b := range brands {
			out = append(out, brandJSON{ID: b.ID, Name: b.Name, CreatedAt: b.CreatedAt.Format("2006-01-02 15:04:05")})
		}
		return printJSON(out)
	}

	if len(brands) == 0 {
		fmt.Println("No brands saved. Run 'diaperctl seed' to add the defaults.")
		return nil
	}
	w := newTable()
	fmt.Fprintln(w, "ID\tNAME")
	for _, b := range brands {
		fmt.Fprintf(w, "%d\t%s\n", b.ID, b.Name)
	}
	return w.Flush()
}

func runBrandsAdd(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")
	if err := be.Brands.AddBrand(cmd.Context(), name); err != nil {
		return fmt.Errorf("add brand: %w", err)
	}
	fmt.Printf("Brand %q added\n", strings.TrimSpace(name))
	return nil
}

func runBrandsRename(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	name := strings.Join(args[1:], " ")
	if err := be.Brands.UpdateBrand(cmd.Context(), id, name); err != nil {
		return fmt.Errorf("rename brand %d: %w", id, err)
	}
	fmt.Printf("Brand %d renamed to %q\n", id, strings.TrimSpace(name))
	return nil
}

func runBrandsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := be.Brands.DeleteBrand(cmd.Context(), id); err != nil {
		return fmt.Errorf("delete brand %d: %w", id, err)
	}
	fmt.Printf("Brand %d deleted\n", id)
	return nil
}
