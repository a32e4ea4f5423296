package schema

// BaseFields are shared by every response shape.
func BaseFields() []Field {
	return []Field{
		{Name: "model", Type: TypeString, Description: "Identifier of the model that produced the answer", Required: true},
		{Name: "date", Type: TypeDateTime, Nullable: true, Description: "Generation timestamp (RFC 3339)"},
		{Name: "error", Type: TypeString, Nullable: true, Description: "Set only when the request cannot be satisfied"},
	}
}

// Tests is the contract for generated test functions.
var Tests = MustNew("TestsResponse", "Ordered list of independent test function sources",
	append(BaseFields(),
		Field{Name: "tests", Type: TypeStringList, Description: "Complete source of each test function", Content: true},
	)...,
)

// Website is the contract for generated site assets.
var Website = MustNew("WebsiteResponse", "Static website assets",
	append(BaseFields(),
		Field{Name: "html", Type: TypeString, Description: "Complete HTML document", Content: true},
		Field{Name: "css", Type: TypeString, Description: "CSS without <style> tags", Content: true},
		Field{Name: "js", Type: TypeString, Description: "JavaScript without <script> tags", Content: true},
	)...,
)

// Lookup returns a predefined response shape by short name.
func Lookup(name string) (*Model, bool) {
	switch name {
	case "tests", "TestsResponse":
		return Tests, true
	case "website", "WebsiteResponse":
		return Website, true
	}
	return nil, false
}
