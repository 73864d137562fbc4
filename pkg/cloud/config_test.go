package cloud_test

import (
	"testing"

	"github.com/JaimeStill/rapid/pkg/cloud"
)

var testEnv = &cloud.Env{
	Region:          "TEST_AWS_REGION",
	Endpoint:        "TEST_AWS_ENDPOINT",
	AccessKeyID:     "TEST_AWS_ACCESS_KEY_ID",
	SecretAccessKey: "TEST_AWS_SECRET_ACCESS_KEY",
}

func TestFinalizeDefaults(t *testing.T) {
	var cfg cloud.Config
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if cfg.Region != "us-west-2" {
		t.Errorf("Region = %q, want us-west-2", cfg.Region)
	}
	if cfg.StaticCredentials() {
		t.Error("StaticCredentials() = true, want false")
	}
}

func TestFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_AWS_REGION", "eu-west-1")
	t.Setenv("TEST_AWS_ENDPOINT", "http://localhost:4566")
	t.Setenv("TEST_AWS_ACCESS_KEY_ID", "key")
	t.Setenv("TEST_AWS_SECRET_ACCESS_KEY", "secret")

	var cfg cloud.Config
	if err := cfg.Finalize(testEnv); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if cfg.Region != "eu-west-1" {
		t.Errorf("Region = %q, want eu-west-1", cfg.Region)
	}
	if cfg.Endpoint != "http://localhost:4566" {
		t.Errorf("Endpoint = %q, want http://localhost:4566", cfg.Endpoint)
	}
	if !cfg.StaticCredentials() {
		t.Error("StaticCredentials() = false, want true")
	}
}

func TestFinalizePartialCredentials(t *testing.T) {
	cfg := cloud.Config{AccessKeyID: "key"}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("expected error for access key without secret")
	}
}

func TestMerge(t *testing.T) {
	base := cloud.Config{Region: "us-east-1", Endpoint: "http://base"}
	base.Merge(&cloud.Config{Region: "ap-northeast-1"})

	if base.Region != "ap-northeast-1" {
		t.Errorf("Region = %q, want ap-northeast-1", base.Region)
	}
	if base.Endpoint != "http://base" {
		t.Errorf("Endpoint = %q, want http://base", base.Endpoint)
	}
}
