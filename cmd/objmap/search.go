package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/objmap/mapcore/internal/config"
	"github.com/objmap/mapcore/internal/radar"
	"github.com/objmap/mapcore/internal/search"
)

func searchCmd(configDir *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Run one query against the object search service",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// defaults stand in for a missing config file
			_ = config.Load(*configDir)
			if limit <= 0 {
				limit = viper.GetInt("search.maxResults")
			}

			query := search.NormalizeQuery(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("empty query")
			}

			ctx := cmd.Context()
			client := radar.New(config.GetString("radar.url"), config.GetDuration("radar.timeout"))
			objs, err := client.GetObjs(ctx, radar.Query{
				MapType:      radar.MainField,
				Query:        query,
				WithMapNames: true,
				Limit:        limit,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, o := range objs {
				fmt.Fprintf(out, "%d\t%s\t%.1f,%.1f\n", o.ObjID, o.Name, o.Pos[0], o.Pos[2])
			}
			fmt.Fprintf(out, "%d objects\n", len(objs))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of objects (default search.maxResults)")
	return cmd
}
