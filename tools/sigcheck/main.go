// Computes the request signature for a Hi-Rez API method so a failing
// createsession can be checked against the developer portal's signature
// tester. The signature is md5(devId + method + authKey + utcTimestamp).
package main

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"time"
)

func signature(devID, method, authKey, ts string) string {
	sum := md5.Sum([]byte(devID + method + authKey + ts))
	return hex.EncodeToString(sum[:])
}

func main() {
	devID := os.Getenv("SMITE_DEV_ID")
	authKey := os.Getenv("SMITE_AUTH_KEY")
	if devID == "" || authKey == "" {
		log.Fatal("SMITE_DEV_ID and SMITE_AUTH_KEY must be set")
	}

	method := "createsession"
	if len(os.Args) > 1 {
		method = os.Args[1]
	}

	ts := time.Now().UTC().Format("20060102150405")
	fmt.Printf("method:    %s\n", method)
	fmt.Printf("timestamp: %s\n", ts)
	fmt.Printf("signature: %s\n", signature(devID, method, authKey, ts))
}
