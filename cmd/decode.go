// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/packetd/respio/common"
	"github.com/packetd/respio/resp"
)

type decodeCmdConfig struct {
	File      string
	ChunkSize int
	JSON      bool
	Encoding  string
}

var decodeConfig decodeCmdConfig

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a RESP2/RESP3 stream from a file or stdin",
	Example: "# respctl decode --file reply.resp\n" +
		"# cat reply.resp | respctl decode --json",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecode(decodeConfig)
	},
}

func init() {
	decodeCmd.Flags().StringVar(&decodeConfig.File, "file", "", "Path to a file containing RESP-framed bytes (defaults to stdin)")
	decodeCmd.Flags().IntVar(&decodeConfig.ChunkSize, "chunk-size", common.DefaultChunkSize, "Bytes read from the source per Feed call")
	decodeCmd.Flags().BoolVar(&decodeConfig.JSON, "json", false, "Print decoded values as JSON instead of text")
	decodeCmd.Flags().StringVar(&decodeConfig.Encoding, "encoding", "", "IANA text encoding used to decode string-bearing scalars")
	rootCmd.AddCommand(decodeCmd)
}

func newProtocolErrorCtor() resp.ProtocolErrorCtor {
	return func(message string) error {
		return errors.New(message)
	}
}

func newReplyErrorCtor() resp.ReplyErrorCtor {
	return func(message string) resp.Value {
		return resp.Value{Type: resp.TypeError, Text: message, Decoded: true}
	}
}

// jsonValue is the JSON rendering of a decoded resp.Value: a flat shape the
// original Go type doesn't have to carry itself, mirroring how
// protocol/predis's decoder.go keeps its wire Value distinct from any
// marshaling concern.
type jsonValue struct {
	Type   string      `json:"type"`
	Text   string      `json:"text,omitempty"`
	Int    *int64      `json:"int,omitempty"`
	Float  *float64    `json:"float,omitempty"`
	Bool   *bool       `json:"bool,omitempty"`
	Format string      `json:"format,omitempty"`
	Items  []jsonValue `json:"items,omitempty"`
	Pairs  []jsonPair  `json:"pairs,omitempty"`
}

type jsonPair struct {
	Key   jsonValue `json:"key"`
	Value jsonValue `json:"value"`
}

func toJSONValue(v resp.Value) jsonValue {
	jv := jsonValue{Type: v.Type.String()}
	switch v.Type {
	case resp.TypeSimpleString, resp.TypeBulkString, resp.TypeVerbatimString, resp.TypeError:
		jv.Text = v.String()
		jv.Format = v.Format
	case resp.TypeInteger:
		n := v.Int
		jv.Int = &n
	case resp.TypeDouble:
		f := v.Float
		jv.Float = &f
	case resp.TypeBoolean:
		b := v.Bool
		jv.Bool = &b
	case resp.TypeArray, resp.TypeSet:
		jv.Items = make([]jsonValue, len(v.Items))
		for i, item := range v.Items {
			jv.Items[i] = toJSONValue(item)
		}
	case resp.TypeMap:
		jv.Pairs = make([]jsonPair, len(v.Pairs))
		for i, pair := range v.Pairs {
			jv.Pairs[i] = jsonPair{Key: toJSONValue(pair.Key), Value: toJSONValue(pair.Value)}
		}
	}
	return jv
}

func runDecode(cfg decodeCmdConfig) error {
	src := os.Stdin
	if cfg.File != "" {
		f, err := os.Open(cfg.File)
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}

	opts := []resp.Option{
		resp.WithProtocolErrorCtor(newProtocolErrorCtor()),
		resp.WithReplyErrorCtor(newReplyErrorCtor()),
	}
	if cfg.Encoding != "" {
		opts = append(opts, resp.WithEncoding(cfg.Encoding), resp.WithEncodingErrors(resp.Replace))
	}
	parser := resp.NewParser(opts...)
	defer parser.Close()

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = common.DefaultChunkSize
	}
	buf := make([]byte, chunkSize)

	enc := json.NewEncoder(os.Stdout)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			parser.Feed(buf[:n])
			if err := drainValues(parser, cfg.JSON, enc); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

func drainValues(parser *resp.Parser, asJSON bool, enc *json.Encoder) error {
	for {
		v, err := parser.ParseOne()
		if err != nil {
			return err
		}
		if v.Type == resp.TypeNotEnoughData {
			return nil
		}
		if asJSON {
			if err := enc.Encode(toJSONValue(v)); err != nil {
				return err
			}
			continue
		}
		fmt.Println(v.String())
	}
}
