package frappe

import (
	"context"
	"fmt"
)

// Generic document methods shipped with every Frappe site.
const (
	MethodGetValue = "frappe.client.get_value"
	MethodGetDoc   = "frappe.client.get"
	MethodGetList  = "frappe.client.get_list"
)

// Filters is a field equality filter, e.g. {"event_name": "Conf A"}.
type Filters map[string]any

// Caller is the subset of *Client the document helpers need.
type Caller interface {
	Call(ctx context.Context, method string, args any, out any) error
}

// GetValue returns fieldname of the first doctype record matching filters.
// No match yields "" and a nil error.
func GetValue(ctx context.Context, c Caller, doctype string, filters Filters, fieldname string) (string, error) {
	var out map[string]any
	err := c.Call(ctx, MethodGetValue, map[string]any{
		"doctype":   doctype,
		"filters":   filters,
		"fieldname": fieldname,
	}, &out)
	if err != nil {
		return "", err
	}
	v, ok := out[fieldname]
	if !ok || v == nil {
		return "", nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

// GetDoc decodes the named document into out.
func GetDoc(ctx context.Context, c Caller, doctype, name string, out any) error {
	return c.Call(ctx, MethodGetDoc, map[string]any{
		"doctype": doctype,
		"name":    name,
	}, out)
}

// ListQuery selects records for GetList.
type ListQuery struct {
	Doctype string
	Fields  []string
	Filters Filters
	OrderBy string
	Limit   int // 0 means no limit
}

// GetList decodes the records matching q into out (a pointer to a slice).
func GetList(ctx context.Context, c Caller, q ListQuery, out any) error {
	if q.Doctype == "" {
		return fmt.Errorf("frappe: list query needs a doctype")
	}
	args := map[string]any{
		"doctype":           q.Doctype,
		"limit_page_length": q.Limit,
	}
	if len(q.Fields) > 0 {
		args["fields"] = q.Fields
	}
	if len(q.Filters) > 0 {
		args["filters"] = q.Filters
	}
	if q.OrderBy != "" {
		args["order_by"] = q.OrderBy
	}
	return c.Call(ctx, MethodGetList, args, out)
}
