package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/aayushmayush07/vault/foundation/vault/database"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

type balance struct {
	Account string `json:"account"`
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

type balances struct {
	Balances []balance `json:"balances"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your settlement balance",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	accountID := database.PublicKeyToAccountID(privateKey.PublicKey)
	fmt.Println("For Account:", accountID)

	resp, err := http.Get(fmt.Sprintf("%s/v1/balances/list/%s", url, accountID))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var balances balances
	if err := json.NewDecoder(resp.Body).Decode(&balances); err != nil {
		log.Fatal(err)
	}

	if len(balances.Balances) > 0 {
		fmt.Println(balances.Balances[0].Balance)
	}
}
