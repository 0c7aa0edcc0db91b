package metric

import "strings"

const (
	TagEnv                       = "env"
	TagService                   = "service"
	TagPath                      = "path"
	TagMethod                    = "method"
	TagHttpStatusCode            = "http_status_code"
	TagExternalService           = "external_service"
	TagExternalServicePath       = "external_service_path"
	TagExternalServiceMethod     = "external_service_method"
	TagExternalServiceStatusCode = "external_service_status_code"
	TagCommunicationProtocol     = "communication_protocol"
	TagModelName                 = "model_name"
	TagResult                    = "result"

	TagValueCommunicationProtocolHttp = "http"
)

// tagValueReplacer maps every character statsd uses as a separator to "_"
var tagValueReplacer = strings.NewReplacer(
	":", "_", " ", "_", "\\", "_", ",", "_", "|", "_", "@", "_", "#", "_",
)

type Tag struct {
	Name  string
	Value string
}

func NewTag(name, value string) Tag {
	return Tag{Name: name, Value: value}
}

// BuildTag renders tags as name:value strings
func BuildTag(tags ...Tag) []string {
	out := make([]string, 0, len(tags))
	UpdateTags(&out, tags...)
	return out
}

// normalizeTagValue cleans up the values this repo tags with: inference server addresses
// (host:port), model names and v2 route paths. Slashes survive so
// /v2/models/<model>/infer stays readable on dashboards.
func normalizeTagValue(value string) string {
	return tagValueReplacer.Replace(value)
}

func TagAsString(name string, value string) string {
	return name + ":" + normalizeTagValue(value)
}

// UpdateTags appends the rendered tags to tags
func UpdateTags(tags *[]string, newTags ...Tag) {
	for _, tag := range newTags {
		*tags = append(*tags, TagAsString(tag.Name, tag.Value))
	}
}
