package parser

import "testing"

func TestIsBoundary(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{"web adaptor line", "2024-07-22T13:45:12.3456789-04:00 [INFO] (Proxy) hello", true},
		{"date only", "2024-07-22", true},
		{"stack frame", "   at System.Net.Http.HttpClient.SendAsync()", false},
		{"invalid month", "2024-13-22T10:00:00", false},
		{"text with T", "Timeout while contacting server", false},
		{"empty", "", false},
		{"space before T", "2024-07-22 T10:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBoundary(tt.line); got != tt.want {
				t.Errorf("IsBoundary(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   Record
		layout string
	}{
		{
			name: "full layout",
			line: "2024-07-22T13:45:12.3456789-04:00 [INFO] (Microsoft.AspNetCore.Hosting.Diagnostics) Request finished - 200",
			want: Record{
				Date:     "2024-07-22",
				Time:     "13:45:12.3456789",
				Datetime: "2024-07-22 13:45:12.3456789",
				Zone:     "-04:00",
				Type:     "INFO",
				Module:   "Microsoft.AspNetCore.Hosting.Diagnostics",
				Message:  "Request finished - 200",
			},
			layout: LayoutWebAdaptor,
		},
		{
			name: "empty zone",
			line: "2024-07-22T13:45:12.3456789 [ERROR] (Proxy) boom",
			want: Record{
				Date:     "2024-07-22",
				Time:     "13:45:12.3456789",
				Datetime: "2024-07-22 13:45:12.3456789",
				Type:     "ERROR",
				Module:   "Proxy",
				Message:  "boom",
			},
			layout: LayoutWebAdaptor,
		},
		{
			name: "module with no message",
			line: "2024-07-22T13:45:12.3456789+02:00 [WARN] (Proxy)",
			want: Record{
				Date:     "2024-07-22",
				Time:     "13:45:12.3456789",
				Datetime: "2024-07-22 13:45:12.3456789",
				Zone:     "+02:00",
				Type:     "WARN",
				Module:   "Proxy",
			},
			layout: LayoutWebAdaptor,
		},
		{
			name: "missing module",
			line: "2024-07-22T13:45:12.3456789-04:00 [INFO] no module here",
			want: Record{
				Date:     "2024-07-22",
				Time:     "13:45:12.3456789",
				Datetime: "2024-07-22 13:45:12.3456789",
				Zone:     "-04:00",
				Type:     "INFO",
				Message:  "no module here",
			},
			layout: LayoutNoModule,
		},
		{
			name: "missing type marker",
			line: "2024-07-22T13:45:12.3456789-04:00 plain text",
			want: Record{
				Date:     "2024-07-22",
				Time:     "13:45:12.3456789",
				Datetime: "2024-07-22 13:45:12.3456789",
				Message:  "-04:00 plain text",
			},
			layout: LayoutDegraded,
		},
		{
			name: "date only",
			line: "2024-07-22",
			want: Record{
				Date:     "2024-07-22",
				Datetime: "2024-07-22 ",
			},
			layout: LayoutDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLine(7, tt.line)
			if got.LineNumber != 7 {
				t.Errorf("LineNumber = %d, want 7", got.LineNumber)
			}
			if got.Layout != tt.layout {
				t.Errorf("Layout = %q, want %q", got.Layout, tt.layout)
			}
			checks := []struct{ field, got, want string }{
				{"Date", got.Date, tt.want.Date},
				{"Time", got.Time, tt.want.Time},
				{"Datetime", got.Datetime, tt.want.Datetime},
				{"Zone", got.Zone, tt.want.Zone},
				{"Type", got.Type, tt.want.Type},
				{"Module", got.Module, tt.want.Module},
				{"Message", got.Message, tt.want.Message},
			}
			for _, c := range checks {
				if c.got != c.want {
					t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
				}
			}
		})
	}
}

func TestLayouts_ReturnsCopy(t *testing.T) {
	l := Layouts()
	if len(l) != 3 {
		t.Fatalf("len(Layouts()) = %d, want 3", len(l))
	}
	l[0] = nil
	if Layouts()[0] == nil {
		t.Error("Layouts() exposed internal slice")
	}
}
