package importer

// FieldName is the canonical identifier a recognised column header maps to.
type FieldName string

const (
	FieldComputerName     FieldName = "computer_name"
	FieldRemoteOffice     FieldName = "remote_office"
	FieldDomain           FieldName = "domain"
	FieldSeverity         FieldName = "severity"
	FieldPatchID          FieldName = "patch_id"
	FieldReleaseDate      FieldName = "release_date"
	FieldDeployedDate     FieldName = "deployed_date"
	FieldPatchName        FieldName = "patch_name"
	FieldBulletinID       FieldName = "bulletin_id"
	FieldPatchDescription FieldName = "patch_description"
	FieldRemarks          FieldName = "remarks"
	FieldPatchStatus      FieldName = "patch_status"
	FieldAgentVersion     FieldName = "agent_version"
	FieldKBNumber         FieldName = "kb_number"
	FieldOperatingSystem  FieldName = "operating_system"
	FieldDeployedUsing    FieldName = "deployed_using"
	FieldDeployedBy       FieldName = "deployed_by"
	FieldApproveStatus    FieldName = "approve_status"
	FieldSize             FieldName = "size"
	FieldLastContactTime  FieldName = "last_contact_time"
)

// Kind selects how a field's raw text is coerced.
type Kind uint8

const (
	KindPlain Kind = iota
	KindInteger
	KindDate
	KindDateTime
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindDate:
		return "date"
	case KindDateTime:
		return "datetime"
	default:
		return "plain"
	}
}

type headerMapping struct {
	Header string
	Field  FieldName
}

// patchReportHeaders lists the report columns in their canonical order.
var patchReportHeaders = []headerMapping{
	{Header: "Computer Name", Field: FieldComputerName},
	{Header: "Remote Office", Field: FieldRemoteOffice},
	{Header: "Domain", Field: FieldDomain},
	{Header: "Severity", Field: FieldSeverity},
	{Header: "Patch ID", Field: FieldPatchID},
	{Header: "Release Date", Field: FieldReleaseDate},
	{Header: "Deployed Date", Field: FieldDeployedDate},
	{Header: "Patch Name", Field: FieldPatchName},
	{Header: "Bulletin ID", Field: FieldBulletinID},
	{Header: "Patch Description", Field: FieldPatchDescription},
	{Header: "Remarks", Field: FieldRemarks},
	{Header: "Patch Status", Field: FieldPatchStatus},
	{Header: "Agent Version", Field: FieldAgentVersion},
	{Header: "KB Number", Field: FieldKBNumber},
	{Header: "Operating System", Field: FieldOperatingSystem},
	{Header: "Deployed Using", Field: FieldDeployedUsing},
	{Header: "Deployed By", Field: FieldDeployedBy},
	{Header: "Approve Status", Field: FieldApproveStatus},
	{Header: "Size", Field: FieldSize},
	{Header: "Last Contact Time", Field: FieldLastContactTime},
}

var patchReportKinds = map[FieldName]Kind{
	FieldPatchID:         KindInteger,
	FieldReleaseDate:     KindDate,     // "Nov 5, 2025"
	FieldDeployedDate:    KindDateTime, // "Nov 9, 2025 11:14 PM"
	FieldLastContactTime: KindDateTime, // "Dec 23, 2025 12:34 AM"
}

var fieldByHeader = func() map[string]FieldName {
	out := make(map[string]FieldName, len(patchReportHeaders))
	for _, mapping := range patchReportHeaders {
		out[mapping.Header] = mapping.Field
	}
	return out
}()

// KindOf returns the type policy for field. Unlisted fields are plain.
func KindOf(field FieldName) Kind {
	if kind, ok := patchReportKinds[field]; ok {
		return kind
	}
	return KindPlain
}

// Fields returns the canonical fields in report column order.
func Fields() []FieldName {
	out := make([]FieldName, 0, len(patchReportHeaders))
	for _, mapping := range patchReportHeaders {
		out = append(out, mapping.Field)
	}
	return out
}

// HeaderFor returns the report header text that maps to field.
func HeaderFor(field FieldName) string {
	for _, mapping := range patchReportHeaders {
		if mapping.Field == field {
			return mapping.Header
		}
	}
	return string(field)
}
