package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/auth"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	gormstore "github.com/cloudlaunch/cloudlaunch-go/pkg/server/store/gorm"
)

const apiPrefix = "/api/v1"

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	authToken    string
	headers      map[string]string
	deployments  map[string]uint
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:          tc,
		headers:     make(map[string]string),
		deployments: make(map[string]uint),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	// Background steps
	sc.Step(`^a CloudLaunch server is running$`, s.aCloudLaunchServerIsRunning)
	sc.Step(`^a user "([^"]*)" exists with password "([^"]*)"$`, s.aUserExists)
	sc.Step(`^a staff user "([^"]*)" exists with password "([^"]*)"$`, s.aStaffUserExists)
	sc.Step(`^the application "([^"]*)" version "([^"]*)" can be launched on the dummy cloud "([^"]*)"$`, s.anApplicationCanBeLaunched)

	// Authentication steps
	sc.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, s.iLogInAs)
	sc.Step(`^I am logged in as "([^"]*)" with password "([^"]*)"$`, s.iAmLoggedInAs)
	sc.Step(`^I log out$`, s.iLogOut)
	sc.Step(`^I use AWS credentials "([^"]*)" and "([^"]*)"$`, s.iUseAWSCredentials)

	// Request steps
	sc.Step(`^I send a (GET|DELETE) request to "([^"]*)"$`, s.iSendARequest)
	sc.Step(`^I send a (POST|PUT|PATCH) request to "([^"]*)" with body:$`, s.iSendARequestWithBody)
	sc.Step(`^I launch "([^"]*)" version "([^"]*)" on "([^"]*)" as "([^"]*)"$`, s.iLaunch)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, s.theResponseFieldShouldBe)
	sc.Step(`^the response should list (\d+) results?$`, s.theResponseShouldListResults)
	sc.Step(`^the deployment "([^"]*)" should reach status "([^"]*)"$`, s.theDeploymentShouldReachStatus)
}

// Background steps

func (s *StepsContext) aCloudLaunchServerIsRunning() error {
	return nil
}

func (s *StepsContext) createUser(username, password string, staff bool) error {
	users := gormstore.NewUsersStore(s.tc.DB)
	if _, err := users.FindUserByUsername(username); err == nil {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return users.CreateUser(&model.User{Username: username, PasswordHash: hash, IsStaff: staff})
}

func (s *StepsContext) aUserExists(username, password string) error {
	return s.createUser(username, password, false)
}

func (s *StepsContext) aStaffUserExists(username, password string) error {
	return s.createUser(username, password, true)
}

// anApplicationCanBeLaunched seeds a dummy cloud with the image the
// in-memory provider ships, and an application version configured for it.
func (s *StepsContext) anApplicationCanBeLaunched(app, version, cloudSlug string) error {
	db := s.tc.DB
	var existing int64
	if err := db.Model(&model.Cloud{}).Where("slug = ?", cloudSlug).Count(&existing).Error; err != nil {
		return err
	}
	if existing == 0 {
		if err := db.Create(&model.Cloud{Slug: cloudSlug, Name: cloudSlug, Kind: model.CloudKindDummy}).Error; err != nil {
			return err
		}
	}

	image := model.CloudImage{Name: "Ubuntu 22.04", ImageID: "img-ubuntu", CloudSlug: cloudSlug}
	if err := db.Where(model.CloudImage{ImageID: image.ImageID, CloudSlug: cloudSlug}).FirstOrCreate(&image).Error; err != nil {
		return err
	}

	application := model.Application{Slug: app, Name: app, Summary: "Integration test application"}
	if err := db.Where(model.Application{Slug: app}).FirstOrCreate(&application).Error; err != nil {
		return err
	}

	v := model.ApplicationVersion{
		ApplicationSlug:      app,
		Version:              version,
		BackendComponentName: "BaseVMAppHandler",
		DefaultLaunchConfig:  `{"config_cloudlaunch": {"firewall": [{"securityGroup": "cloudlaunch-test", "rules": [{"protocol": "tcp", "from": "22", "to": "22", "cidr": "0.0.0.0/0"}]}]}}`,
	}
	if err := db.Where(model.ApplicationVersion{ApplicationSlug: app, Version: version}).FirstOrCreate(&v).Error; err != nil {
		return err
	}

	cc := model.ApplicationVersionCloudConfig{
		ApplicationVersionID: v.ID,
		CloudSlug:            cloudSlug,
		ImageID:              image.ID,
		DefaultInstanceType:  "m1.small",
	}
	return db.Where(model.ApplicationVersionCloudConfig{ApplicationVersionID: v.ID, CloudSlug: cloudSlug}).FirstOrCreate(&cc).Error
}

// Authentication steps

func (s *StepsContext) iLogInAs(username, password string) error {
	body := fmt.Sprintf(`{"username": %q, "password": %q}`, username, password)
	if err := s.do("POST", apiPrefix+"/auth/login/", []byte(body)); err != nil {
		return err
	}
	if s.response.StatusCode == http.StatusOK {
		var token struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal(s.responseBody, &token); err != nil {
			return err
		}
		s.authToken = token.Key
	}
	return nil
}

func (s *StepsContext) iAmLoggedInAs(username, password string) error {
	if err := s.iLogInAs(username, password); err != nil {
		return err
	}
	if s.authToken == "" {
		return fmt.Errorf("login failed with status %d: %s", s.response.StatusCode, s.responseBody)
	}
	return nil
}

func (s *StepsContext) iLogOut() error {
	return s.do("POST", apiPrefix+"/auth/logout/", nil)
}

func (s *StepsContext) iUseAWSCredentials(accessKey, secretKey string) error {
	s.headers["cl-aws-access-key"] = accessKey
	s.headers["cl-aws-secret-key"] = secretKey
	return nil
}

// Request steps

func (s *StepsContext) do(method, path string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, s.tc.ServerURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.authToken != "" {
		req.Header.Set("Authorization", "Token "+s.authToken)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	s.response, err = s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	s.responseBody, err = io.ReadAll(s.response.Body)
	_ = s.response.Body.Close()
	return err
}

func (s *StepsContext) iSendARequest(method, path string) error {
	return s.do(method, apiPrefix+path, nil)
}

func (s *StepsContext) iSendARequestWithBody(method, path string, body *godog.DocString) error {
	return s.do(method, apiPrefix+path, []byte(body.Content))
}

func (s *StepsContext) iLaunch(app, version, cloudSlug, name string) error {
	body, err := json.Marshal(map[string]string{
		"name":                name,
		"application":         app,
		"application_version": version,
		"target_cloud":        cloudSlug,
	})
	if err != nil {
		return err
	}
	if err := s.do("POST", apiPrefix+"/deployments/", body); err != nil {
		return err
	}
	if s.response.StatusCode != http.StatusCreated {
		return fmt.Errorf("launch failed with status %d: %s", s.response.StatusCode, s.responseBody)
	}
	var created struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(s.responseBody, &created); err != nil {
		return err
	}
	s.deployments[name] = created.ID
	return nil
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expected int) error {
	if s.response == nil {
		return fmt.Errorf("no response received")
	}
	if s.response.StatusCode != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

// field walks a dotted path through the JSON response body.
func (s *StepsContext) field(path string) (interface{}, error) {
	var body interface{}
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	cur := body
	for _, part := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case map[string]interface{}:
			cur = v[part]
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(v) {
				return nil, fmt.Errorf("no element %q in %s", part, path)
			}
			cur = v[i]
		default:
			return nil, fmt.Errorf("cannot descend into %q of %s", part, path)
		}
	}
	return cur, nil
}

func (s *StepsContext) theResponseFieldShouldBe(path, expected string) error {
	v, err := s.field(path)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != expected {
		return fmt.Errorf("expected %s to be %q, got %q", path, expected, got)
	}
	return nil
}

func (s *StepsContext) theResponseShouldListResults(n int) error {
	v, err := s.field("count")
	if err != nil {
		return err
	}
	if count, _ := v.(float64); int(count) != n {
		return fmt.Errorf("expected %d results, got %v: %s", n, v, s.responseBody)
	}
	return nil
}

func (s *StepsContext) theDeploymentShouldReachStatus(name, status string) error {
	id, ok := s.deployments[name]
	if !ok {
		return fmt.Errorf("deployment %q was not launched in this scenario", name)
	}
	deadline := time.Now().Add(20 * time.Second)
	var last string
	for time.Now().Before(deadline) {
		if err := s.do("GET", fmt.Sprintf("%s/deployments/%d/", apiPrefix, id), nil); err != nil {
			return err
		}
		v, err := s.field("task_status")
		if err != nil {
			return err
		}
		last = fmt.Sprint(v)
		if last == status {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("deployment %q stayed %s, wanted %s: %s", name, last, status, s.responseBody)
}
