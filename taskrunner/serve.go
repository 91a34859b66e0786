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
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/lindb/taskpool/procpool/codec"
	"github.com/lindb/taskpool/procpool/wire"
)

// Serve runs the worker process loop: read frames from in until EOF,
// and for each one invoke the registered task (by class name) or
// report an unknown-class error, writing exactly one response frame
// per request. Requests are handled concurrently, with writes to out
// serialized by a single mutex, since the parent-side Worker's reader
// assumes frames arrive whole and un-interleaved.
func Serve(in io.Reader, out io.Writer, c codec.Codec) error {
	var writeMu sync.Mutex
	var wg sync.WaitGroup
	defer wg.Wait()

	writeResponse := func(resp wire.Response) {
		payload, err := c.Encode(resp)
		if err != nil {
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = codec.WriteFrame(out, payload)
	}

	for {
		payload, err := codec.ReadFrame(in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		var req wire.Request
		if err := c.Decode(payload, &req); err != nil {
			writeResponse(wire.Response{Status: wire.StatusErr, Message: err.Error()})
			continue
		}

		wg.Add(1)
		go func(req wire.Request) {
			defer wg.Done()
			writeResponse(handle(req))
		}(req)
	}
}

func handle(req wire.Request) wire.Response {
	if req.Target.Kind != wire.TargetClassName {
		return wire.Response{
			MsgID:   req.MsgID,
			Status:  wire.StatusErr,
			Message: "taskrunner: callable targets are not supported, use a registered class name",
		}
	}

	fn, ok := Lookup(req.Target.Class)
	if !ok {
		return wire.Response{
			MsgID:   req.MsgID,
			Status:  wire.StatusErr,
			Message: "taskrunner: unknown task class " + req.Target.Class,
		}
	}

	val, err := safeRun(fn, req.Args)
	if err != nil {
		return wire.Response{MsgID: req.MsgID, Status: wire.StatusErr, Message: err.Error()}
	}
	return wire.Response{MsgID: req.MsgID, Status: wire.StatusOK, Body: val}
}

// safeRun recovers a panicking task so one bad task cannot take the
// whole worker process down with it.
func safeRun(fn Func, args []any) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{r}
		}
	}()
	return fn(args)
}

type panicError struct{ v any }

func (e *panicError) Error() string {
	return fmt.Sprintf("taskrunner: task panicked: %v", e.v)
}
