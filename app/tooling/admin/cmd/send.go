package cmd

import (
	"fmt"
	"log"

	"github.com/cometchain/comet/foundation/blockchain/database"
	"github.com/cometchain/comet/foundation/blockchain/nodeclient"
	"github.com/spf13/cobra"
)

var data string

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a transaction to the mempool.",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&data, "data", "d", "", "Payload to carry in the transaction.")
}

func sendRun(cmd *cobra.Command, args []string) {
	ctx, cancel := cmdContext()
	defer cancel()

	tx := database.NewTx([]byte(data))

	if err := nodeclient.New(url).SubmitTx(ctx, tx); err != nil {
		log.Fatal(err)
	}

	fmt.Println("sent tx", tx.Digest())
}
