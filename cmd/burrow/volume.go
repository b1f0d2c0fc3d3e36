package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cuemby/burrow/pkg/volumedb"
)

var createDBCmd = &cobra.Command{
	Use:   "create-db",
	Short: "Initialize the volume database",
	Long: `Create the volume database file and schema if they do not exist.

Safe to run repeatedly: an already-initialized database is left
untouched, including all existing volume records.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := volumedb.CreateWithPolicy(cfg.DBPath, retryPolicy()); err != nil {
			return err
		}
		fmt.Printf("✓ Volume database ready at %s\n", cfg.DBPath)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new managed volume",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		if id == "" {
			id = uuid.New().String()
		}

		rawInfo, _ := cmd.Flags().GetString("connection-info")
		connectionInfo, err := parseDocument(rawInfo)
		if err != nil {
			return fmt.Errorf("invalid --connection-info: %w", err)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Add(id, connectionInfo); err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <volume-id>",
	Short: "Show a managed volume record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		vol, err := db.Get(args[0])
		if err != nil {
			return err
		}
		return printJSON(vol)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all managed volume records",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		volumes, err := db.List()
		if err != nil {
			return err
		}
		return printJSON(volumes)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <volume-id>",
	Short: "Record the result of a completed attach flow",
	Long: `Set the device path, attachment metadata and multipath id of a
volume in one atomic update. All three are recorded together; previous
values are overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("path")
		multipathID, _ := cmd.Flags().GetString("multipath-id")

		rawAttachment, _ := cmd.Flags().GetString("attachment")
		attachment, err := parseDocument(rawAttachment)
		if err != nil {
			return fmt.Errorf("invalid --attachment: %w", err)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		return db.Update(args[0], path, attachment, multipathID)
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <volume-id>",
	Short: "Delete a managed volume record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		return db.Remove(args[0])
	},
}

var ownsMultipathCmd = &cobra.Command{
	Use:   "owns-multipath <multipath-id>",
	Short: "Check whether any volume owns a multipath device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		owns, err := db.OwnsMultipath(args[0])
		if err != nil {
			return err
		}
		fmt.Println(owns)
		return nil
	},
}

var dbVersionCmd = &cobra.Command{
	Use:   "db-version",
	Short: "Show the volume database schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		info, err := db.VersionInfo()
		if err != nil {
			return err
		}
		return printJSON(info)
	},
}

func init() {
	addCmd.Flags().String("id", "", "Volume identifier (generated when omitted)")
	addCmd.Flags().String("connection-info", "", "Connection info document as JSON")
	_ = addCmd.MarkFlagRequired("connection-info")

	updateCmd.Flags().String("path", "", "Host device path (e.g. /dev/mapper/...)")
	updateCmd.Flags().String("attachment", "", "Attachment metadata document as JSON")
	updateCmd.Flags().String("multipath-id", "", "Backing multipath device identifier")
	_ = updateCmd.MarkFlagRequired("path")
	_ = updateCmd.MarkFlagRequired("attachment")
	_ = updateCmd.MarkFlagRequired("multipath-id")
}

// parseDocument decodes an opaque JSON object flag value.
func parseDocument(raw string) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
