package htmlutil

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const page = `
<html>
<head>
	<meta name="csrf-token" content="tok123">
</head>
<body>
	<a href="/service/1/manage">  Manage
		Service  </a>
	<a href="/service/2/manage">Other</a>
	<form action="/invoice/5/pay/stripe">
		<input name="_token" value="abc">
		<input name="gateway" value="stripe">
		<input value="unnamed">
	</form>
</body>
</html>`

func parseDoc(t *testing.T) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func TestGetAnchors(t *testing.T) {
	doc := parseDoc(t)
	anchors := GetAnchors(context.Background(), doc.Find("a"))

	require.Len(t, anchors, 2)
	require.Equal(t, "Manage Service", anchors[0].Name)
	require.Equal(t, "/service/1/manage", anchors[0].Href)
	require.Equal(t, "/service/2/manage", anchors[1].Href)
}

func TestMetaContent(t *testing.T) {
	doc := parseDoc(t)
	require.Equal(t, "tok123", MetaContent(doc, "csrf-token"))
	require.Equal(t, "", MetaContent(doc, "nonexistent"))
}

func TestInputValue(t *testing.T) {
	doc := parseDoc(t)

	value, ok := InputValue(doc.Selection, "_token")
	require.True(t, ok)
	require.Equal(t, "abc", value)

	_, ok = InputValue(doc.Selection, "missing")
	require.False(t, ok)
}

func TestInputValues(t *testing.T) {
	doc := parseDoc(t)
	fields := InputValues(doc.Find("form"))
	require.Equal(t, map[string]string{
		"_token":  "abc",
		"gateway": "stripe",
	}, fields)
}
