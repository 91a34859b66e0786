// Licensed to LinDB under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. LinDB licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package taskrunner

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lindb/taskpool/procpool/codec"
	"github.com/lindb/taskpool/procpool/wire"
)

func init() {
	Register("serve-test-double", func(args []any) (any, error) {
		n, _ := args[0].(float64)
		return n * 2, nil
	})
	Register("serve-test-fail", func(_ []any) (any, error) {
		return nil, errors.New("deliberate failure")
	})
	Register("serve-test-panic", func(_ []any) (any, error) {
		panic("boom")
	})
}

func writeRequest(t *testing.T, buf *bytes.Buffer, req wire.Request) {
	t.Helper()
	var c codec.JSON
	payload, err := c.Encode(req)
	require.NoError(t, err)
	require.NoError(t, codec.WriteFrame(buf, payload))
}

func readResponse(t *testing.T, buf *bytes.Buffer) wire.Response {
	t.Helper()
	payload, err := codec.ReadFrame(buf)
	require.NoError(t, err)
	var resp wire.Response
	var c codec.JSON
	require.NoError(t, c.Decode(payload, &resp))
	return resp
}

func TestServe_RunsRegisteredTask(t *testing.T) {
	var in, out bytes.Buffer
	writeRequest(t, &in, wire.Request{
		MsgID:  1,
		Target: wire.Target{Kind: wire.TargetClassName, Class: "serve-test-double"},
		Args:   []any{21.0},
	})

	require.NoError(t, Serve(&in, &out, codec.JSON{}))

	resp := readResponse(t, &out)
	assert.Equal(t, uint64(1), resp.MsgID)
	assert.Equal(t, wire.StatusOK, resp.Status)
	assert.Equal(t, float64(42), resp.Body)
}

func TestServe_TaskError(t *testing.T) {
	var in, out bytes.Buffer
	writeRequest(t, &in, wire.Request{
		MsgID:  2,
		Target: wire.Target{Kind: wire.TargetClassName, Class: "serve-test-fail"},
	})

	require.NoError(t, Serve(&in, &out, codec.JSON{}))

	resp := readResponse(t, &out)
	assert.Equal(t, wire.StatusErr, resp.Status)
	assert.Contains(t, resp.Message, "deliberate failure")
}

func TestServe_RecoversPanic(t *testing.T) {
	var in, out bytes.Buffer
	writeRequest(t, &in, wire.Request{
		MsgID:  3,
		Target: wire.Target{Kind: wire.TargetClassName, Class: "serve-test-panic"},
	})

	require.NoError(t, Serve(&in, &out, codec.JSON{}))

	resp := readResponse(t, &out)
	assert.Equal(t, wire.StatusErr, resp.Status)
	assert.Contains(t, resp.Message, "panicked")
}

func TestServe_UnknownClass(t *testing.T) {
	var in, out bytes.Buffer
	writeRequest(t, &in, wire.Request{
		MsgID:  4,
		Target: wire.Target{Kind: wire.TargetClassName, Class: "serve-test-does-not-exist"},
	})

	require.NoError(t, Serve(&in, &out, codec.JSON{}))

	resp := readResponse(t, &out)
	assert.Equal(t, wire.StatusErr, resp.Status)
	assert.Contains(t, resp.Message, "unknown task class")
}

func TestServe_RejectsCallableTarget(t *testing.T) {
	var in, out bytes.Buffer
	writeRequest(t, &in, wire.Request{
		MsgID:  5,
		Target: wire.Target{Kind: wire.TargetCallable, Payload: []byte("x")},
	})

	require.NoError(t, Serve(&in, &out, codec.JSON{}))

	resp := readResponse(t, &out)
	assert.Equal(t, wire.StatusErr, resp.Status)
	assert.Contains(t, resp.Message, "callable targets are not supported")
}
