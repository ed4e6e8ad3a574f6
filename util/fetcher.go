// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
)

// FetchJSON - fetch a JSON response from an HTTP GET and decode it
//
// the status code is always returned so that a caller can treat "not
// found" differently from a failure; the body is only decoded for 200
func FetchJSON(ctx context.Context, client *http.Client, url string, reply interface{}) (int, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if nil != err {
		return 0, err
	}

	response, err := client.Do(request)
	if nil != err {
		return 0, err
	}
	defer response.Body.Close()
	body, err := ioutil.ReadAll(response.Body)
	if nil != err {
		return response.StatusCode, err
	}

	if http.StatusOK != response.StatusCode {
		return response.StatusCode, fmt.Errorf("status: %d %q on: %q", response.StatusCode, response.Status, url)
	}
	return response.StatusCode, json.Unmarshal(body, reply)
}
