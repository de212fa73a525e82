package models

import "errors"

var (
	ErrAborted             = errors.New("aborted")
	ErrSettingsNotFound    = errors.New("settings file not found")
	ErrConfigNotFound      = errors.New("config file not found")
	ErrEnvFileNotFound     = errors.New(".env file not found")
	ErrMissingSetting      = errors.New("required setting missing")
	ErrInvalidVenv         = errors.New("virtual environment does not exist or is not valid")
	ErrPythonNotFound      = errors.New("no python interpreter found on PATH")
	ErrInstallFailed       = errors.New("error occurred during installation")
	ErrLaunchFailed        = errors.New("error starting Airflow")
	ErrUnsupportedOS       = errors.New("unsupported operating system")
	ErrConstraintsNotFound = errors.New("no constraints published for this Airflow version")
)
