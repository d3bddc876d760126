// Command client is the interactive demonstration client: send a
// random order, send a bulk batch of random orders, or enter one by
// hand, and watch confirmations arrive. Translated from the reference
// implementation's runClient.
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"matchcore/boundary"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <ip> <port>\n", os.Args[0])
		os.Exit(1)
	}
	addr := fmt.Sprintf("%s:%s", os.Args[1], os.Args[2])

	log := zap.NewNop()
	client, err := boundary.Dial(addr, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial: %v\n", err)
		os.Exit(1)
	}

	go client.ReceiveConfirmations(func(c boundary.WireConfirmation) {
		fmt.Printf("[Client] Confirmation: %+v\n", c)
	})

	rng := rand.New(rand.NewSource(1))
	reader := bufio.NewReader(os.Stdin)
	var orderCounter uint64 = 1

	for {
		fmt.Print("\n[Client Menu]\n" +
			"1) Send a random order\n" +
			"2) Send multiple random orders (bulk)\n" +
			"3) Enter a custom order\n" +
			"4) Quit\n" +
			"Select: ")

		choice, ok := readInt(reader)
		if !ok {
			continue
		}

		switch choice {
		case 1:
			order := boundary.RandomOrder(rng, orderCounter)
			orderCounter++
			if err := client.SendOrder(order); err != nil {
				fmt.Printf("[Client] send failed: %v\n", err)
				continue
			}
			fmt.Printf("[Client] Sent random order: %+v\n", order)
		case 2:
			fmt.Print("How many orders? ")
			n, ok := readInt(reader)
			if !ok {
				continue
			}
			for i := 0; i < n; i++ {
				order := boundary.RandomOrder(rng, orderCounter)
				orderCounter++
				if err := client.SendOrder(order); err != nil {
					fmt.Printf("[Client] send failed: %v\n", err)
				}
			}
			fmt.Printf("[Client] Sent %d random orders.\n", n)
		case 3:
			order := readCustomOrder(reader, orderCounter)
			orderCounter++
			if err := client.SendOrder(order); err != nil {
				fmt.Printf("[Client] send failed: %v\n", err)
				continue
			}
			fmt.Printf("[Client] Sent custom order: %+v\n", order)
		case 4:
			client.Close()
			fmt.Println("[Client] Exiting...")
			return
		default:
			fmt.Println("Invalid choice.")
		}
	}
}

func readCustomOrder(reader *bufio.Reader, orderID uint64) boundary.WireOrder {
	o := boundary.WireOrder{OrderID: orderID}

	fmt.Print("Enter type (market/limit/cancel/stop-loss/ioc/fok): ")
	o.Type = readWord(reader)

	fmt.Print("Enter action (buy/sell): ")
	o.Action = readWord(reader)

	fmt.Print("Enter price: ")
	o.Price = readFloat(reader)

	fmt.Print("Enter quantity: ")
	o.Quantity = uint64(readInt64(reader))

	if o.Type == "stop-loss" {
		fmt.Print("Enter stop price: ")
		o.StopPrice = readFloat(reader)
	}
	return o
}

func readWord(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func readInt(reader *bufio.Reader) (int, bool) {
	n, err := strconv.Atoi(readWord(reader))
	return n, err == nil
}

func readInt64(reader *bufio.Reader) int64 {
	n, _ := strconv.ParseInt(readWord(reader), 10, 64)
	return n
}

func readFloat(reader *bufio.Reader) float64 {
	f, _ := strconv.ParseFloat(readWord(reader), 64)
	return f
}
