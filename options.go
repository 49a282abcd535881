// Copyright 2019-2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package natscore

import (
	"crypto/tls"
	"encoding/json"
	"os"
	"strings"
)

// ConnectOptions carries the values passed through into the CONNECT
// JSON payload (spec §6). Server discovery and reconnection policy are
// out of scope (spec §1); Host/Port name the single server this
// Subscriber dials.
type ConnectOptions struct {
	Host string
	Port int

	TLSConfig *tls.Config

	Token    string
	Username string
	Password string
	// CredentialsFile, if set, names a NATS ".creds" file (the usual
	// decorated-PEM format holding a user JWT and an NKEY seed).
	// MarshalConnect extracts and passes through the JWT block as-is;
	// signing the server's nonce challenge with the accompanying NKEY
	// seed is credential *acquisition*, which spec §1 places out of
	// scope ("authentication token acquisition"), so the seed block is
	// read but never used here.
	CredentialsFile string

	Verbose   bool
	Pedantic  bool
	Name      string
	Lang      string
	Version   string
	Protocol  int
	TLSEnable bool
}

// connectPayload mirrors the wire field names real NATS servers expect
// in a CONNECT frame's JSON body.
type connectPayload struct {
	Verbose     bool   `json:"verbose"`
	Pedantic    bool   `json:"pedantic"`
	TLSRequired bool   `json:"tls_required"`
	AuthToken   string `json:"auth_token,omitempty"`
	User        string `json:"user,omitempty"`
	Pass        string `json:"pass,omitempty"`
	JWT         string `json:"jwt,omitempty"`
	Name        string `json:"name,omitempty"`
	Lang        string `json:"lang"`
	Version     string `json:"version"`
	Protocol    int    `json:"protocol"`
}

// MarshalConnect renders opts into the JSON body of a CONNECT frame.
func (opts ConnectOptions) MarshalConnect() ([]byte, error) {
	p := connectPayload{
		Verbose:     opts.Verbose,
		Pedantic:    opts.Pedantic,
		TLSRequired: opts.TLSEnable,
		AuthToken:   opts.Token,
		User:        opts.Username,
		Pass:        opts.Password,
		Name:        opts.Name,
		Lang:        opts.Lang,
		Version:     opts.Version,
		Protocol:    opts.Protocol,
	}
	if opts.CredentialsFile != "" {
		jwt, err := loadCredentialsJWT(opts.CredentialsFile)
		if err != nil {
			return nil, err
		}
		p.JWT = jwt
	}
	if p.Lang == "" {
		p.Lang = "go"
	}
	return json.Marshal(p)
}

// loadCredentialsJWT extracts the user JWT block from a NATS ".creds"
// file: the text strictly between the "-----BEGIN NATS USER JWT-----"
// and the following "------END" marker lines, matching the format
// nats-server's nsc tooling emits. The NKEY seed block that follows is
// deliberately not parsed (see ConnectOptions.CredentialsFile).
func loadCredentialsJWT(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	const beginMarker = "-----BEGIN NATS USER JWT-----"
	s := string(data)
	start := strings.Index(s, beginMarker)
	if start < 0 {
		return "", ErrMalformedFrame
	}
	start += len(beginMarker)
	end := strings.Index(s[start:], "------END")
	if end < 0 {
		return "", ErrMalformedFrame
	}
	return strings.TrimSpace(s[start : start+end]), nil
}
