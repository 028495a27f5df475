// Copyright 2018 Bull S.A.S. Atos Technologies - Bull, Rue Jean Jaures, B.P.68, 78340, Les Clayes-sous-Bois, France.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trainsub/trainsub/config"
	"github.com/trainsub/trainsub/log"
)

var cfgFile string

func init() {
	setConfig()
	cobra.OnInitialize(initConfig)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// enable ability to specify config file via flag
		viper.SetConfigFile(cfgFile)
	}
	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Debugln("Using config file:", viper.ConfigFileUsed())
	} else {
		log.Debugln("Config not found... ")
	}
}

func setConfig() {
	// Flags definition for the batch job descriptor
	RootCmd.PersistentFlags().String("job_name", config.DefaultJobName, "Name of the batch job")
	RootCmd.PersistentFlags().String("output", config.DefaultOutputPath, "Path pattern of the job standard output file (%u, %x and %j are resolved by the scheduler)")
	RootCmd.PersistentFlags().String("error", config.DefaultErrorPath, "Path pattern of the job standard error file")
	RootCmd.PersistentFlags().String("signal_name", config.DefaultSignalName, "Signal sent to the job before its time limit")
	RootCmd.PersistentFlags().Int("signal_lead_time", config.DefaultSignalLeadTime, "Seconds before the time limit at which the signal is sent")
	RootCmd.PersistentFlags().String("open_mode", config.DefaultOpenMode, "Open mode of the output and error files (append or truncate)")
	RootCmd.PersistentFlags().String("partition", config.DefaultPartition, "Partition the job is submitted to")
	RootCmd.PersistentFlags().Int("time_limit", config.DefaultTimeLimit, "Job time limit in minutes")
	RootCmd.PersistentFlags().Int("nodes", config.DefaultNodes, "Number of nodes allocated to the job")
	RootCmd.PersistentFlags().Int("tasks_per_node", config.DefaultTasksPerNode, "Number of tasks started on each node")
	RootCmd.PersistentFlags().Int("cpus_per_task", config.DefaultCPUsPerTask, "Number of CPUs allocated to each task")
	RootCmd.PersistentFlags().String("gres", config.DefaultGres, "Generic resources allocated on each node (format: <name>[:<type>]:<count>)")
	RootCmd.PersistentFlags().Int("mem_per_cpu", config.DefaultMemPerCPU, "Memory allocated per CPU in megabytes")

	// Flags definition for the training hyperparameters
	RootCmd.PersistentFlags().String("program", config.DefaultProgram, "Training program prefixing the launch command")
	RootCmd.PersistentFlags().Int("num_workers", config.DefaultNumWorkers, "Number of data loading workers")
	RootCmd.PersistentFlags().Int("batch_size", config.DefaultBatchSize, "Training batch size")
	RootCmd.PersistentFlags().StringSlice("train_data_urls", config.DefaultTrainDataURLs, "LibriSpeech training sets")
	RootCmd.PersistentFlags().Int("num_epochs", config.DefaultNumEpochs, "Number of training epochs")
	RootCmd.PersistentFlags().Int("window_stride", config.DefaultWindowStride, "Spectrogram window stride in milliseconds")
	RootCmd.PersistentFlags().String("optimizer", config.DefaultOptimizer, "Optimizer (sgd or adam)")
	RootCmd.PersistentFlags().String("learning_rate", config.DefaultLearningRate, "Learning rate")
	RootCmd.PersistentFlags().Int("log_steps", config.DefaultLogSteps, "Number of steps between training log lines")
	RootCmd.PersistentFlags().String("checkpoint", config.DefaultCheckpoint, "Checkpoint name")

	// Flags definition for the cluster access endpoint
	RootCmd.PersistentFlags().String("cluster_url", "", "Address of a node with the Slurm client tools installed. When empty the local tools are used")
	RootCmd.PersistentFlags().String("cluster_user_name", "", "The username used to connect to the cluster")
	RootCmd.PersistentFlags().String("cluster_private_key", "", "Path to (or content of) the private key used to connect to the cluster")
	RootCmd.PersistentFlags().String("cluster_password", "", "The password used to connect to the cluster")
	RootCmd.PersistentFlags().Int("cluster_port", config.DefaultSSHPort, "SSH port of the cluster node")

	RootCmd.PersistentFlags().String("working_directory", config.DefaultWorkingDirectory, "Directory keeping generated scripts and submission records")
	RootCmd.PersistentFlags().Duration("monitoring_time_interval", config.DefaultMonitoringTimeInterval, "Time interval between job status polls")

	viper.BindPFlag("job_name", RootCmd.PersistentFlags().Lookup("job_name"))
	viper.BindPFlag("output", RootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("error", RootCmd.PersistentFlags().Lookup("error"))
	viper.BindPFlag("signal_name", RootCmd.PersistentFlags().Lookup("signal_name"))
	viper.BindPFlag("signal_lead_time", RootCmd.PersistentFlags().Lookup("signal_lead_time"))
	viper.BindPFlag("open_mode", RootCmd.PersistentFlags().Lookup("open_mode"))
	viper.BindPFlag("partition", RootCmd.PersistentFlags().Lookup("partition"))
	viper.BindPFlag("time_limit", RootCmd.PersistentFlags().Lookup("time_limit"))
	viper.BindPFlag("nodes", RootCmd.PersistentFlags().Lookup("nodes"))
	viper.BindPFlag("tasks_per_node", RootCmd.PersistentFlags().Lookup("tasks_per_node"))
	viper.BindPFlag("cpus_per_task", RootCmd.PersistentFlags().Lookup("cpus_per_task"))
	viper.BindPFlag("gres", RootCmd.PersistentFlags().Lookup("gres"))
	viper.BindPFlag("mem_per_cpu", RootCmd.PersistentFlags().Lookup("mem_per_cpu"))

	viper.BindPFlag("program", RootCmd.PersistentFlags().Lookup("program"))
	viper.BindPFlag("num_workers", RootCmd.PersistentFlags().Lookup("num_workers"))
	viper.BindPFlag("batch_size", RootCmd.PersistentFlags().Lookup("batch_size"))
	viper.BindPFlag("train_data_urls", RootCmd.PersistentFlags().Lookup("train_data_urls"))
	viper.BindPFlag("num_epochs", RootCmd.PersistentFlags().Lookup("num_epochs"))
	viper.BindPFlag("window_stride", RootCmd.PersistentFlags().Lookup("window_stride"))
	viper.BindPFlag("optimizer", RootCmd.PersistentFlags().Lookup("optimizer"))
	viper.BindPFlag("learning_rate", RootCmd.PersistentFlags().Lookup("learning_rate"))
	viper.BindPFlag("log_steps", RootCmd.PersistentFlags().Lookup("log_steps"))
	viper.BindPFlag("checkpoint", RootCmd.PersistentFlags().Lookup("checkpoint"))

	viper.BindPFlag("cluster_url", RootCmd.PersistentFlags().Lookup("cluster_url"))
	viper.BindPFlag("cluster_user_name", RootCmd.PersistentFlags().Lookup("cluster_user_name"))
	viper.BindPFlag("cluster_private_key", RootCmd.PersistentFlags().Lookup("cluster_private_key"))
	viper.BindPFlag("cluster_password", RootCmd.PersistentFlags().Lookup("cluster_password"))
	viper.BindPFlag("cluster_port", RootCmd.PersistentFlags().Lookup("cluster_port"))

	viper.BindPFlag("working_directory", RootCmd.PersistentFlags().Lookup("working_directory"))
	viper.BindPFlag("monitoring_time_interval", RootCmd.PersistentFlags().Lookup("monitoring_time_interval"))

	RootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is /etc/trainsub/config.trainsub.json)")

	// Environment Variables
	viper.SetEnvPrefix("trainsub") // will be uppercased automatically - Become "TRAINSUB_"
	viper.AutomaticEnv()           // read in environment variables that match
	viper.BindEnv("cluster_url")
	viper.BindEnv("cluster_user_name")
	viper.BindEnv("cluster_private_key")
	viper.BindEnv("cluster_password")
	viper.BindEnv("cluster_port")
	viper.BindEnv("working_directory")
	viper.BindEnv("partition")
	viper.BindEnv("checkpoint")

	// Setting Defaults
	viper.SetDefault("job_name", config.DefaultJobName)
	viper.SetDefault("output", config.DefaultOutputPath)
	viper.SetDefault("error", config.DefaultErrorPath)
	viper.SetDefault("signal_name", config.DefaultSignalName)
	viper.SetDefault("signal_lead_time", config.DefaultSignalLeadTime)
	viper.SetDefault("open_mode", config.DefaultOpenMode)
	viper.SetDefault("partition", config.DefaultPartition)
	viper.SetDefault("time_limit", config.DefaultTimeLimit)
	viper.SetDefault("nodes", config.DefaultNodes)
	viper.SetDefault("tasks_per_node", config.DefaultTasksPerNode)
	viper.SetDefault("cpus_per_task", config.DefaultCPUsPerTask)
	viper.SetDefault("gres", config.DefaultGres)
	viper.SetDefault("mem_per_cpu", config.DefaultMemPerCPU)
	viper.SetDefault("program", config.DefaultProgram)
	viper.SetDefault("num_workers", config.DefaultNumWorkers)
	viper.SetDefault("batch_size", config.DefaultBatchSize)
	viper.SetDefault("train_data_urls", config.DefaultTrainDataURLs)
	viper.SetDefault("num_epochs", config.DefaultNumEpochs)
	viper.SetDefault("window_stride", config.DefaultWindowStride)
	viper.SetDefault("optimizer", config.DefaultOptimizer)
	viper.SetDefault("learning_rate", config.DefaultLearningRate)
	viper.SetDefault("log_steps", config.DefaultLogSteps)
	viper.SetDefault("checkpoint", config.DefaultCheckpoint)
	viper.SetDefault("cluster_url", "")
	viper.SetDefault("cluster_port", config.DefaultSSHPort)
	viper.SetDefault("working_directory", config.DefaultWorkingDirectory)
	viper.SetDefault("monitoring_time_interval", config.DefaultMonitoringTimeInterval)

	// Configuration file directories
	viper.SetConfigName("config.trainsub") // name of config file (without extension)
	viper.AddConfigPath("/etc/trainsub/")
	viper.AddConfigPath(".")
}

func getConfig() config.Configuration {
	configuration := config.Configuration{}
	configuration.WorkingDirectory = viper.GetString("working_directory")
	configuration.MonitoringTimeInterval = viper.GetDuration("monitoring_time_interval")

	configuration.Job.Name = viper.GetString("job_name")
	configuration.Job.Output = viper.GetString("output")
	configuration.Job.Error = viper.GetString("error")
	configuration.Job.SignalName = viper.GetString("signal_name")
	configuration.Job.SignalLeadTime = viper.GetInt("signal_lead_time")
	configuration.Job.OpenMode = viper.GetString("open_mode")
	configuration.Job.Partition = viper.GetString("partition")
	configuration.Job.TimeLimit = viper.GetInt("time_limit")
	configuration.Job.Nodes = viper.GetInt("nodes")
	configuration.Job.TasksPerNode = viper.GetInt("tasks_per_node")
	configuration.Job.CPUsPerTask = viper.GetInt("cpus_per_task")
	configuration.Job.Gres = viper.GetString("gres")
	configuration.Job.MemPerCPU = viper.GetInt("mem_per_cpu")

	configuration.Training.Program = viper.GetString("program")
	configuration.Training.NumWorkers = viper.GetInt("num_workers")
	configuration.Training.BatchSize = viper.GetInt("batch_size")
	configuration.Training.NumEpochs = viper.GetInt("num_epochs")
	configuration.Training.WindowStride = viper.GetInt("window_stride")
	configuration.Training.Optimizer = viper.GetString("optimizer")
	configuration.Training.LearningRate = viper.GetString("learning_rate")
	configuration.Training.LogSteps = viper.GetInt("log_steps")
	configuration.Training.Checkpoint = viper.GetString("checkpoint")
	configuration.Training.TrainDataURLs = make([]string, 0)
	for _, urlsFlag := range viper.GetStringSlice("train_data_urls") {
		// Cobra may give a slice with a single element containing coma separated input flags
		configuration.Training.TrainDataURLs = append(configuration.Training.TrainDataURLs, strings.Split(urlsFlag, ",")...)
	}

	configuration.Cluster = make(config.DynamicMap)
	configuration.Cluster.Set("url", viper.GetString("cluster_url"))
	configuration.Cluster.Set("user_name", viper.GetString("cluster_user_name"))
	configuration.Cluster.Set("private_key", viper.GetString("cluster_private_key"))
	configuration.Cluster.Set("password", viper.GetString("cluster_password"))
	configuration.Cluster.Set("port", viper.GetInt("cluster_port"))
	return configuration
}
