package s3compat

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	minio "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BucketPurger/internal/storage"
)

func TestNormalizeEndpoint(t *testing.T) {
	cases := []struct {
		in     string
		ssl    bool
		host   string
		secure bool
	}{
		{"minio.local:9000", false, "minio.local:9000", false},
		{"minio.local:9000/", true, "minio.local:9000", true},
		{"http://minio.local:9000", true, "minio.local:9000", false},
		{"https://s3.amazonaws.com", false, "s3.amazonaws.com", true},
		{"", true, "", true},
	}
	for _, c := range cases {
		h, sec := normalizeEndpoint(c.in, c.ssl)
		assert.Equal(t, c.host, h, "host for %q", c.in)
		assert.Equal(t, c.secure, sec, "secure for %q", c.in)
	}
}

func TestNew_RequiresEndpoint(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no such bucket", minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: 404}, storage.ErrBucketNotFound},
		{"not empty", minio.ErrorResponse{Code: "BucketNotEmpty", StatusCode: 409}, storage.ErrBucketNotEmpty},
		{"denied", minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}, storage.ErrAccessDenied},
		{"slow down", minio.ErrorResponse{Code: "SlowDown", StatusCode: 503}, storage.ErrTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("op", "b", tt.err)
			assert.ErrorIs(t, err, tt.want)
			var resp minio.ErrorResponse
			require.True(t, errors.As(err, &resp))
			assert.Equal(t, tt.err.(minio.ErrorResponse).Code, resp.Code)
		})
	}

	plain := errors.New("boom")
	var se *storage.Error
	require.True(t, errors.As(classify("op", "b", plain), &se))
	assert.Nil(t, se.Kind)
	assert.Nil(t, classify("op", "b", nil))
}

type fakeVersion struct {
	Key, VersionID string
	DeleteMarker   bool
}

// s3Fake answers just enough of the S3 protocol for the calls the backend
// makes. Pages are served in order through the key marker; when listFails is
// set the page after the last one answers 403.
type s3Fake struct {
	pages     [][]fakeVersion
	listFails bool
	// keyErrors maps "key@version" to an error code returned for that entry.
	keyErrors  map[string]string
	denyDelete bool

	mu        sync.Mutex
	requested []string
	deletes   int
}

type deleteRequest struct {
	Objects []struct {
		Key       string
		VersionID string `xml:"VersionId"`
	} `xml:"Object"`
}

func writeXML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` + body))
}

func accessDenied(bucket string) string {
	return `<Error><Code>AccessDenied</Code><Message>Access Denied</Message><BucketName>` + bucket + `</BucketName></Error>`
}

func (f *s3Fake) listVersions(w http.ResponseWriter, r *http.Request, bucket string) {
	page := 0
	if m := r.URL.Query().Get("key-marker"); m != "" {
		page, _ = strconv.Atoi(strings.TrimPrefix(m, "page-"))
	}
	if page >= len(f.pages) {
		if f.listFails {
			writeXML(w, http.StatusForbidden, accessDenied(bucket))
			return
		}
		writeXML(w, http.StatusOK, `<ListVersionsResult><Name>`+bucket+`</Name><IsTruncated>false</IsTruncated></ListVersionsResult>`)
		return
	}
	var b strings.Builder
	b.WriteString(`<ListVersionsResult><Name>` + bucket + `</Name>`)
	for _, v := range f.pages[page] {
		tag := "Version"
		if v.DeleteMarker {
			tag = "DeleteMarker"
		}
		fmt.Fprintf(&b, `<%s><Key>%s</Key><VersionId>%s</VersionId><IsLatest>true</IsLatest>`+
			`<LastModified>2024-01-02T03:04:05.000Z</LastModified><Size>3</Size></%s>`, tag, v.Key, v.VersionID, tag)
	}
	if page+1 < len(f.pages) || f.listFails {
		fmt.Fprintf(&b, `<IsTruncated>true</IsTruncated><NextKeyMarker>page-%d</NextKeyMarker><NextVersionIdMarker>x</NextVersionIdMarker>`, page+1)
	} else {
		b.WriteString(`<IsTruncated>false</IsTruncated>`)
	}
	b.WriteString(`</ListVersionsResult>`)
	writeXML(w, http.StatusOK, b.String())
}

func (f *s3Fake) deleteObjects(w http.ResponseWriter, r *http.Request, bucket string) {
	f.mu.Lock()
	f.deletes++
	f.mu.Unlock()
	if f.denyDelete {
		writeXML(w, http.StatusForbidden, accessDenied(bucket))
		return
	}
	var req deleteRequest
	if err := xml.NewDecoder(r.Body).Decode(&req); err != nil {
		writeXML(w, http.StatusBadRequest, `<Error><Code>MalformedXML</Code><Message>bad body</Message></Error>`)
		return
	}
	var b strings.Builder
	b.WriteString(`<DeleteResult>`)
	for _, o := range req.Objects {
		id := o.Key + "@" + o.VersionID
		f.mu.Lock()
		f.requested = append(f.requested, id)
		f.mu.Unlock()
		if code, ok := f.keyErrors[id]; ok {
			fmt.Fprintf(&b, `<Error><Key>%s</Key><VersionId>%s</VersionId><Code>%s</Code><Message>failed</Message></Error>`, o.Key, o.VersionID, code)
			continue
		}
		fmt.Fprintf(&b, `<Deleted><Key>%s</Key><VersionId>%s</VersionId></Deleted>`, o.Key, o.VersionID)
	}
	b.WriteString(`</DeleteResult>`)
	writeXML(w, http.StatusOK, b.String())
}

func (f *s3Fake) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	bucket := strings.Trim(r.URL.Path, "/")
	q := r.URL.Query()
	switch {
	case r.Method == http.MethodHead && bucket == "present":
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodHead:
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodGet && q.Has("versions"):
		f.listVersions(w, r, bucket)
	case r.Method == http.MethodPost && q.Has("delete"):
		f.deleteObjects(w, r, bucket)
	case r.Method == http.MethodDelete && bucket == "full":
		writeXML(w, http.StatusConflict, `<Error><Code>BucketNotEmpty</Code>`+
			`<Message>The bucket you tried to delete is not empty</Message><BucketName>full</BucketName></Error>`)
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func (f *s3Fake) deleteRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deletes
}

func (f *s3Fake) requestedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requested...)
}

func fakeS3(t *testing.T) *Client {
	t.Helper()
	return serveFake(t, &s3Fake{})
}

func serveFake(t *testing.T, f *s3Fake) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c, err := New(Options{
		Endpoint:   srv.URL,
		Region:     "us-east-1",
		AccessKey:  "minioadmin",
		SecretKey:  "minioadmin",
		PathStyle:  true,
		MaxRetries: 1,
	})
	require.NoError(t, err)
	return c
}

func versionedPages() [][]fakeVersion {
	return [][]fakeVersion{
		{{Key: "a", VersionID: "v1"}, {Key: "a", VersionID: "v2"}, {Key: "b", VersionID: "v3"}},
		{{Key: "b", VersionID: "v4"}, {Key: "c", VersionID: "v5", DeleteMarker: true}},
	}
}

func TestListVersions_FakeServer(t *testing.T) {
	c := serveFake(t, &s3Fake{pages: versionedPages()})
	ctx := context.Background()

	all, err := c.ListVersions(ctx, "bkt", 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "a", all[0].Key)
	assert.Equal(t, "v1", all[0].VersionID)
	assert.EqualValues(t, 3, all[0].Size)
	assert.True(t, all[4].DeleteMarker)
	assert.Equal(t, "v5", all[4].VersionID)

	some, err := c.ListVersions(ctx, "bkt", 2)
	require.NoError(t, err)
	assert.Len(t, some, 2)
}

func TestListVersions_FakeServerDenied(t *testing.T) {
	c := serveFake(t, &s3Fake{listFails: true})
	_, err := c.ListVersions(context.Background(), "bkt", 0)
	assert.ErrorIs(t, err, storage.ErrAccessDenied)
}

func TestDeleteAllVersions_FakeServer(t *testing.T) {
	f := &s3Fake{pages: versionedPages()}
	c := serveFake(t, f)

	res, err := c.DeleteAllVersions(context.Background(), "bkt")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Deleted)
	assert.Empty(t, res.Errors)
	assert.ElementsMatch(t, []string{"a@v1", "a@v2", "b@v3", "b@v4", "c@v5"}, f.requestedIDs())
}

func TestDeleteAllVersions_FakeServerEntryErrors(t *testing.T) {
	f := &s3Fake{
		pages:     versionedPages(),
		keyErrors: map[string]string{"a@v2": "AccessDenied", "c@v5": "InternalError"},
	}
	c := serveFake(t, f)

	res, err := c.DeleteAllVersions(context.Background(), "bkt")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Deleted)
	require.Len(t, res.Errors, 2)
	byKey := map[string]storage.DeleteError{}
	for _, e := range res.Errors {
		byKey[e.Key+"@"+e.VersionID] = e
	}
	assert.Equal(t, "AccessDenied", byKey["a@v2"].Code)
	assert.Equal(t, "InternalError", byKey["c@v5"].Code)
}

func TestDeleteAllVersions_FakeServerRequestDenied(t *testing.T) {
	f := &s3Fake{pages: versionedPages(), denyDelete: true}
	c := serveFake(t, f)

	res, err := c.DeleteAllVersions(context.Background(), "bkt")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrAccessDenied)
	var se *storage.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "deleteObjects", se.Op)
	require.NotNil(t, res)
	assert.Zero(t, res.Deleted)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, f.deleteRequests())
}

func TestDeleteAllVersions_InvalidBucketName(t *testing.T) {
	c := fakeS3(t)
	_, err := c.DeleteAllVersions(context.Background(), "b")
	require.Error(t, err)
	var se *storage.Error
	assert.True(t, errors.As(err, &se))
}

func TestDeleteAllVersions_FakeServerListFailsMidway(t *testing.T) {
	f := &s3Fake{pages: versionedPages()[:1], listFails: true}
	c := serveFake(t, f)

	res, err := c.DeleteAllVersions(context.Background(), "bkt")
	assert.ErrorIs(t, err, storage.ErrAccessDenied)
	var se *storage.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "listObjectVersions", se.Op)
	assert.Equal(t, 3, res.Deleted)
	assert.ElementsMatch(t, []string{"a@v1", "a@v2", "b@v3"}, f.requestedIDs())
}

func TestBucketExists_FakeServer(t *testing.T) {
	c := fakeS3(t)
	ctx := context.Background()

	ok, err := c.BucketExists(ctx, "present")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.BucketExists(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteBucket_FakeServer(t *testing.T) {
	c := fakeS3(t)
	ctx := context.Background()

	require.NoError(t, c.DeleteBucket(ctx, "empty"))

	err := c.DeleteBucket(ctx, "full")
	assert.True(t, storage.IsBucketNotEmpty(err))
}
