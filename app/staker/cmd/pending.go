package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Print the unclaimed reward for a position",
	Run:   pendingRun,
}

func init() {
	rootCmd.AddCommand(pendingCmd)
	pendingCmd.Flags().Uint64VarP(&positionID, "id", "i", 0, "Position id.")
}

func pendingRun(cmd *cobra.Command, args []string) {
	resp, err := http.Get(fmt.Sprintf("%s/v1/rewards/pending/%d", url, positionID))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var pending struct {
		ID      uint64 `json:"id"`
		Pending string `json:"pending"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pending); err != nil {
		log.Fatal(err)
	}

	fmt.Println(pending.Pending)
}
