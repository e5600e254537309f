package cloud

// Credentials carry what a backend needs to authenticate. Only the fields
// for the target cloud kind are set.
type Credentials struct {
	AWSAccessKey string `json:"aws_access_key,omitempty"`
	AWSSecretKey string `json:"aws_secret_key,omitempty"`

	OSUsername           string `json:"os_username,omitempty"`
	OSPassword           string `json:"os_password,omitempty"`
	OSTenantName         string `json:"os_tenant_name,omitempty"`
	OSProjectName        string `json:"os_project_name,omitempty"`
	OSProjectDomainName  string `json:"os_project_domain_name,omitempty"`
	OSUserDomainName     string `json:"os_user_domain_name,omitempty"`
	OSIdentityAPIVersion string `json:"os_identity_api_version,omitempty"`
}

// Empty reports whether no credential field is set.
func (c Credentials) Empty() bool {
	return c == Credentials{}
}

// Spec holds the connection details of a cloud, independent of the account
// used to reach it.
type Spec struct {
	Slug string
	Kind string
	// Region is the EC2 region name or the OpenStack region.
	Region string
	// Endpoint is the EC2 endpoint or the Keystone auth URL.
	Endpoint string
	// ObjectStoreEndpoint overrides the S3 endpoint.
	ObjectStoreEndpoint string
}
